package repository

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// AdjustmentRepository puerto de persistencia para ajustes (inmutables una vez creados).
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	List(ctx context.Context, filter entity.AdjustmentFilter) ([]*entity.Adjustment, error)
}
