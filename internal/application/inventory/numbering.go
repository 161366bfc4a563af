package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

// NumberingService asigna números de documento únicos y crecientes por tipo.
// El contador es atómico en el backend; un número consumido por una operación fallida no se reutiliza.
type NumberingService struct {
	seqRepo repository.SequenceRepository
}

// NewNumberingService construye el servicio sobre un contador atómico (Postgres, Redis o memoria).
func NewNumberingService(seqRepo repository.SequenceRepository) *NumberingService {
	return &NumberingService{seqRepo: seqRepo}
}

// Next devuelve el siguiente identificador, p. ej. RCP000042.
func (s *NumberingService) Next(ctx context.Context, docType entity.DocumentType) (string, error) {
	if _, err := inventory.Prefix(docType); err != nil {
		return "", err
	}
	seq, err := s.seqRepo.Next(ctx, docType)
	if err != nil {
		return "", fmt.Errorf("numeración %s: %w", docType, err)
	}
	return inventory.FormatDocumentNumber(docType, seq)
}
