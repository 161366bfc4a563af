package repository

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// ProductRepository puerto de datos maestros de productos (CRUD externo al núcleo).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
