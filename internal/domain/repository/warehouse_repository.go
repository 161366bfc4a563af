package repository

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// WarehouseRepository puerto de datos maestros de bodegas (CRUD externo al núcleo).
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}
