package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. El stock total inicia en 0 y solo lo mueve el motor de inventario.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt, p.UpdatedAt = now, now
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, sku, name, category, unit_of_measure, min_stock, total_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`,
		p.ID, p.SKU, p.Name, p.Category, p.UnitOfMeasure, p.MinStock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: producto %s o SKU %s ya existe", domain.ErrInvalidInput, p.ID, p.SKU)
		}
		return mapErr("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID. ErrNotFound si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `
		SELECT id, sku, name, category, unit_of_measure, min_stock, created_at, updated_at
		FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.UnitOfMeasure, &p.MinStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr("get product "+id, err)
	}
	return &p, nil
}
