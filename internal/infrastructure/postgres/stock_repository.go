package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// Un StockRepo atado a una tx recuerda si ya bloqueó celdas: el segundo lote usa NOWAIT.
type StockRepo struct {
	q         Querier
	lockedSet bool
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetProductStock obtiene el total del producto y la cantidad por bodega en una sola sentencia, para que
// total y celdas salgan de la misma foto aun bajo READ COMMITTED.
func (r *StockRepo) GetProductStock(ctx context.Context, productID string) (*entity.ProductStock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.total_stock, p.stock_updated_at, s.warehouse_id, s.quantity
		FROM products p
		LEFT JOIN stock s ON s.product_id = p.id
		WHERE p.id = $1
		ORDER BY s.warehouse_id`, productID)
	if err != nil {
		return nil, mapErr("get product stock", err)
	}
	defer rows.Close()

	var ps *entity.ProductStock
	for rows.Next() {
		var (
			total     decimal.Decimal
			updatedAt *time.Time
			wh        *string
			qty       decimal.NullDecimal
		)
		if err := rows.Scan(&total, &updatedAt, &wh, &qty); err != nil {
			return nil, fmt.Errorf("scan product stock: %w", err)
		}
		if ps == nil {
			ps = &entity.ProductStock{ProductID: productID, TotalStock: total, PerWarehouse: map[string]decimal.Decimal{}}
			if updatedAt != nil {
				ps.UpdatedAt = *updatedAt
			}
		}
		// producto sin celdas: una sola fila con bodega NULL
		if wh != nil && qty.Valid {
			ps.PerWarehouse[*wh] = qty.Decimal
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("get product stock", err)
	}
	if ps == nil {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return ps, nil
}

// GetCellsForUpdate crea las celdas faltantes en 0 y bloquea todas con SELECT ... FOR UPDATE en orden
// (producto, bodega). Un segundo lote en la misma tx no espera: NOWAIT devuelve ErrConcurrencyConflict.
func (r *StockRepo) GetCellsForUpdate(ctx context.Context, cells []entity.StockCell) (map[entity.StockCell]decimal.Decimal, error) {
	cells = entity.SortCells(cells)
	products := make([]string, len(cells))
	warehouses := make([]string, len(cells))
	for i, c := range cells {
		products[i], warehouses[i] = c.ProductID, c.WarehouseID
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		SELECT c.product_id, c.warehouse_id, 0, now()
		FROM unnest($1::text[], $2::text[]) AS c(product_id, warehouse_id)
		ORDER BY c.product_id, c.warehouse_id
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, products, warehouses)
	if err != nil {
		return nil, mapErr("ensure stock cells", err)
	}

	query := `
		SELECT s.product_id, s.warehouse_id, s.quantity
		FROM stock s
		JOIN unnest($1::text[], $2::text[]) AS c(product_id, warehouse_id)
		  ON s.product_id = c.product_id AND s.warehouse_id = c.warehouse_id
		ORDER BY s.product_id, s.warehouse_id
		FOR UPDATE OF s`
	if r.lockedSet {
		query += " NOWAIT"
	}
	rows, err := r.q.Query(ctx, query, products, warehouses)
	if err != nil {
		return nil, mapErr("lock stock cells", err)
	}
	defer rows.Close()
	out := make(map[entity.StockCell]decimal.Decimal, len(cells))
	for rows.Next() {
		var c entity.StockCell
		var q decimal.Decimal
		if err := rows.Scan(&c.ProductID, &c.WarehouseID, &q); err != nil {
			return nil, fmt.Errorf("scan locked cell: %w", err)
		}
		out[c] = q
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("lock stock cells", err)
	}
	r.lockedSet = true
	return out, nil
}

// ApplyCellChanges fija cada celda comparando con el valor leído bajo bloqueo y suma el delta neto
// al total de cada producto, en orden de producto.
func (r *StockRepo) ApplyCellChanges(ctx context.Context, changes []entity.CellChange) error {
	totals := map[string]decimal.Decimal{}
	for _, c := range changes {
		tag, err := r.q.Exec(ctx, `
			UPDATE stock SET quantity = $3, updated_at = now()
			WHERE product_id = $1 AND warehouse_id = $2 AND quantity = $4`,
			c.Cell.ProductID, c.Cell.WarehouseID, c.After, c.Before)
		if err != nil {
			return mapErr("update stock cell", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: la celda %s/%s cambió", domain.ErrConcurrencyConflict, c.Cell.ProductID, c.Cell.WarehouseID)
		}
		totals[c.Cell.ProductID] = totals[c.Cell.ProductID].Add(c.Delta())
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		_, err := r.q.Exec(ctx,
			`UPDATE products SET total_stock = total_stock + $2, stock_updated_at = now() WHERE id = $1`,
			id, totals[id])
		if err != nil {
			return mapErr("update product total", err)
		}
	}
	return nil
}

// ListProductIDs lista los productos del catálogo.
func (r *StockRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, mapErr("list products", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
