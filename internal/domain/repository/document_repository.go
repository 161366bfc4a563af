package repository

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// DocumentRepository puerto de persistencia para recepciones, entregas y traslados.
type DocumentRepository interface {
	// Create persiste el documento. ErrDuplicateIdentifier si el número ya existe.
	Create(ctx context.Context, doc *entity.MovementDocument) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*entity.MovementDocument, error)
	// GetForUpdate bloquea el documento hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.MovementDocument, error)
	// Update guarda estado, líneas y metadatos del documento.
	Update(ctx context.Context, doc *entity.MovementDocument) error
	List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.MovementDocument, error)
}
