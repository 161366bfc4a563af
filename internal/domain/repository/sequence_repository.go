package repository

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// SequenceRepository entrega el siguiente valor del contador de un tipo de documento.
// Debe ser atómico: dos llamadas concurrentes nunca reciben el mismo valor. Se admiten huecos.
type SequenceRepository interface {
	Next(ctx context.Context, docType entity.DocumentType) (int64, error)
}
