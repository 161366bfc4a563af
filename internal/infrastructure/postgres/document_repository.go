package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo recepciones, entregas y traslados con sus líneas (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, number, type, status, COALESCE(warehouse_id, ''), COALESCE(from_warehouse_id, ''),
	COALESCE(to_warehouse_id, ''), partner, notes, created_by, created_at, updated_at, validated_at`

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserta el documento y sus líneas. Número repetido: ErrDuplicateIdentifier.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.MovementDocument) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO movement_documents (id, number, type, status, warehouse_id, from_warehouse_id, to_warehouse_id,
			partner, notes, created_by, created_at, updated_at, validated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		doc.ID, doc.Number, string(doc.Type), string(doc.Status),
		nullable(doc.WarehouseID), nullable(doc.FromWarehouseID), nullable(doc.ToWarehouseID),
		doc.Partner, doc.Notes, doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt, doc.ValidatedAt,
	)
	if err != nil {
		return mapErr("insert document", err)
	}
	return r.insertItems(ctx, doc)
}

func (r *DocumentRepo) insertItems(ctx context.Context, doc *entity.MovementDocument) error {
	if len(doc.Items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range doc.Items {
		var fulfilled decimal.NullDecimal
		if it.FulfilledQuantity != nil {
			fulfilled = decimal.NewNullDecimal(*it.FulfilledQuantity)
		}
		batch.Queue(`
			INSERT INTO movement_document_items (document_id, line_no, product_id, quantity, fulfilled_quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			doc.ID, i+1, it.ProductID, it.Quantity, fulfilled)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range doc.Items {
		if _, err := br.Exec(); err != nil {
			return mapErr("insert document item", err)
		}
	}
	return nil
}

// GetByID devuelve el documento con sus líneas. ErrNotFound si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.MovementDocument, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM movement_documents WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila del documento hasta el fin de la tx.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.MovementDocument, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM movement_documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *DocumentRepo) get(ctx context.Context, query, id string) (*entity.MovementDocument, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr("get document "+id, err)
	}
	items, err := r.items(ctx, []string{doc.ID})
	if err != nil {
		return nil, err
	}
	doc.Items = items[doc.ID]
	return doc, nil
}

// Update guarda estado y metadatos y reemplaza las líneas.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.MovementDocument) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE movement_documents SET status = $2, warehouse_id = $3, from_warehouse_id = $4, to_warehouse_id = $5,
			partner = $6, notes = $7, updated_at = $8, validated_at = $9
		WHERE id = $1`,
		doc.ID, string(doc.Status), nullable(doc.WarehouseID), nullable(doc.FromWarehouseID), nullable(doc.ToWarehouseID),
		doc.Partner, doc.Notes, doc.UpdatedAt, doc.ValidatedAt,
	)
	if err != nil {
		return mapErr("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("update document "+doc.ID, pgx.ErrNoRows)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM movement_document_items WHERE document_id = $1`, doc.ID); err != nil {
		return mapErr("replace document items", err)
	}
	return r.insertItems(ctx, doc)
}

// List documentos del más reciente al más antiguo. Un traslado coincide con la bodega por origen o destino.
func (r *DocumentRepo) List(ctx context.Context, f entity.DocumentFilter) ([]*entity.MovementDocument, error) {
	var where []string
	var args []any
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		n := len(args)
		where = append(where, fmt.Sprintf("(warehouse_id = $%d OR from_warehouse_id = $%d OR to_warehouse_id = $%d)", n, n, n))
	}
	query := `SELECT ` + documentColumns + ` FROM movement_documents`
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
		return nil, mapErr("list documents", err)
	}
	list := []*entity.MovementDocument{}
	ids := []string{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
		ids = append(ids, doc.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapErr("list documents", err)
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, doc := range list {
		doc.Items = items[doc.ID]
	}
	return list, nil
}

func (r *DocumentRepo) items(ctx context.Context, ids []string) (map[string][]entity.LineItem, error) {
	out := make(map[string][]entity.LineItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT document_id, product_id, quantity, fulfilled_quantity
		FROM movement_document_items WHERE document_id = ANY($1) ORDER BY document_id, line_no`, ids)
	if err != nil {
		return nil, mapErr("list document items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var docID string
		var it entity.LineItem
		var fulfilled decimal.NullDecimal
		if err := rows.Scan(&docID, &it.ProductID, &it.Quantity, &fulfilled); err != nil {
			return nil, fmt.Errorf("scan document item: %w", err)
		}
		if fulfilled.Valid {
			q := fulfilled.Decimal
			it.FulfilledQuantity = &q
		}
		out[docID] = append(out[docID], it)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.MovementDocument, error) {
	var d entity.MovementDocument
	var typ, status string
	if err := row.Scan(&d.ID, &d.Number, &typ, &status, &d.WarehouseID, &d.FromWarehouseID, &d.ToWarehouseID,
		&d.Partner, &d.Notes, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt, &d.ValidatedAt); err != nil {
		return nil, err
	}
	d.Type = entity.DocumentType(typ)
	d.Status = entity.DocumentStatus(status)
	return &d, nil
}
