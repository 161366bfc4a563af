package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo ajustes por conteo. Solo inserción y lectura.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

const adjustmentColumns = `id, number, warehouse_id, product_id, recorded_quantity, counted_quantity, difference,
	reason, notes, created_by, created_at`

// Create inserta el ajuste. Número repetido: ErrDuplicateIdentifier.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO adjustments (`+adjustmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Number, a.WarehouseID, a.ProductID, a.RecordedQuantity, a.CountedQuantity, a.Difference,
		string(a.Reason), a.Notes, a.CreatedBy, a.CreatedAt,
	)
	return mapErr("insert adjustment", err)
}

// GetByID ErrNotFound si no existe.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentColumns+` FROM adjustments WHERE id = $1`, id)
	if err != nil {
		return nil, mapErr("get adjustment", err)
	}
	list, err := scanAdjustments(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, mapErr("get adjustment "+id, pgx.ErrNoRows)
	}
	return list[0], nil
}

// List ajustes del más reciente al más antiguo.
func (r *AdjustmentRepo) List(ctx context.Context, f entity.AdjustmentFilter) ([]*entity.Adjustment, error) {
	var where []string
	var args []any
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		where = append(where, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	query := `SELECT ` + adjustmentColumns + ` FROM adjustments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, number DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list adjustments", err)
	}
	return scanAdjustments(rows)
}

func scanAdjustments(rows pgx.Rows) ([]*entity.Adjustment, error) {
	defer rows.Close()
	list := []*entity.Adjustment{}
	for rows.Next() {
		var a entity.Adjustment
		var reason string
		if err := rows.Scan(&a.ID, &a.Number, &a.WarehouseID, &a.ProductID, &a.RecordedQuantity, &a.CountedQuantity,
			&a.Difference, &reason, &a.Notes, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		a.Reason = entity.AdjustmentReason(reason)
		list = append(list, &a)
	}
	return list, rows.Err()
}
