package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo libro de stock sobre PostgreSQL. La tabla tiene un trigger que rechaza UPDATE y DELETE.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `seq, id, product_id, warehouse_id, movement_type, document_id, document_number,
	quantity_before, quantity_change, quantity_after, notes, actor, created_at`

// AppendBatch inserta las entradas en un solo viaje y asigna Sequence desde la secuencia de la tabla.
func (r *LedgerRepo) AppendBatch(ctx context.Context, entries []*entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO stock_ledger (id, product_id, warehouse_id, movement_type, document_id, document_number,
				quantity_before, quantity_change, quantity_after, notes, actor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING seq`,
			e.ID, e.ProductID, e.WarehouseID, string(e.MovementType), e.DocumentID, e.DocumentNumber,
			e.QuantityBefore, e.QuantityChange, e.QuantityAfter, e.Notes, e.Actor, e.CreatedAt,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for _, e := range entries {
		if err := br.QueryRow().Scan(&e.Sequence); err != nil {
			return mapErr("append ledger entry", err)
		}
	}
	return nil
}

// ListByCell entradas de la celda en orden de inserción.
func (r *LedgerRepo) ListByCell(ctx context.Context, cell entity.StockCell) ([]*entity.LedgerEntry, error) {
	return r.query(ctx, `SELECT `+ledgerColumns+` FROM stock_ledger
		WHERE product_id = $1 AND warehouse_id = $2 ORDER BY seq`, cell.ProductID, cell.WarehouseID)
}

// List entradas filtradas por producto, bodega y documento, en orden de inserción.
func (r *LedgerRepo) List(ctx context.Context, f entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.DocumentID != "" {
		add("document_id = $%d", f.DocumentID)
	}
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return r.query(ctx, query, args...)
}

func (r *LedgerRepo) query(ctx context.Context, query string, args ...any) ([]*entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list ledger", err)
	}
	defer rows.Close()
	list := []*entity.LedgerEntry{}
	for rows.Next() {
		var e entity.LedgerEntry
		var mt string
		if err := rows.Scan(&e.Sequence, &e.ID, &e.ProductID, &e.WarehouseID, &mt, &e.DocumentID, &e.DocumentNumber,
			&e.QuantityBefore, &e.QuantityChange, &e.QuantityAfter, &e.Notes, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.MovementType = entity.MovementType(mt)
		list = append(list, &e)
	}
	return list, rows.Err()
}
