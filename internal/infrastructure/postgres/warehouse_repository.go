package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega. Código repetido: ErrInvalidInput.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt, w.UpdatedAt = now, now
	}
	if w.Type == "" {
		w.Type = entity.WarehouseTypeMain
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO warehouses (id, code, name, location, type, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.Code, w.Name, w.Location, w.Type, w.Active, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bodega %s o código %s ya existe", domain.ErrInvalidInput, w.ID, w.Code)
		}
		return mapErr("insert warehouse", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID. ErrNotFound si no existe.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := r.q.QueryRow(ctx, `
		SELECT id, code, name, location, type, active, created_at, updated_at
		FROM warehouses WHERE id = $1`, id,
	).Scan(&w.ID, &w.Code, &w.Name, &w.Location, &w.Type, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, mapErr("get warehouse "+id, err)
	}
	return &w, nil
}
