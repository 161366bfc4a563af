package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

func txOf(s *Store, t *tx) *tx {
	if t != nil {
		return t
	}
	return &tx{s: s, auto: true}
}

func cellKey(c entity.StockCell) string { return "cell:" + c.ProductID + "|" + c.WarehouseID }

func docKey(id string) string { return "doc:" + id }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ─── Stock ────────────────────────────────────────────────────────────────────

type stockRepo struct {
	s *Store
	t *tx
}

var _ repository.StockRepository = stockRepo{}

func (r stockRepo) GetProductStock(_ context.Context, productID string) (*entity.ProductStock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.products[productID]; !ok {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	ps := &entity.ProductStock{
		ProductID:    productID,
		PerWarehouse: map[string]decimal.Decimal{},
		TotalStock:   r.s.totals[productID],
		UpdatedAt:    r.s.stockAt[productID],
	}
	for c, q := range r.s.cells {
		if c.ProductID == productID {
			ps.PerWarehouse[c.WarehouseID] = q
		}
	}
	return ps, nil
}

func (r stockRepo) GetCellsForUpdate(ctx context.Context, cells []entity.StockCell) (map[entity.StockCell]decimal.Decimal, error) {
	t := txOf(r.s, r.t)
	// Un segundo lote en la misma transacción no espera: evita interbloqueos fuera de orden.
	try := t.lockedSet
	for _, c := range cells {
		if err := t.acquire(ctx, cellKey(c), try); err != nil {
			return nil, err
		}
	}
	t.lockedSet = true

	out := make(map[entity.StockCell]decimal.Decimal, len(cells))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range cells {
		if q, ok := t.staged[c]; ok {
			out[c] = q
			continue
		}
		out[c] = r.s.cells[c]
	}
	return out, nil
}

func (r stockRepo) ApplyCellChanges(_ context.Context, changes []entity.CellChange) error {
	t := txOf(r.s, r.t)
	for _, c := range changes {
		if c.After.IsNegative() {
			return fmt.Errorf("%w: celda %s/%s quedaría en %s", domain.ErrInsufficientStock, c.Cell.ProductID, c.Cell.WarehouseID, c.After)
		}
		if t.staged == nil {
			t.staged = map[entity.StockCell]decimal.Decimal{}
		}
		t.staged[c.Cell] = c.After
		t.cellChanges = append(t.cellChanges, c)
	}
	return t.done()
}

func (r stockRepo) ListProductIDs(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.products))
	for id := range r.s.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ─── Libro ────────────────────────────────────────────────────────────────────

type ledgerRepo struct {
	s *Store
	t *tx
}

var _ repository.LedgerRepository = ledgerRepo{}

func (r ledgerRepo) AppendBatch(_ context.Context, entries []*entity.LedgerEntry) error {
	t := txOf(r.s, r.t)
	for _, e := range entries {
		if !e.QuantityAfter.Equal(e.QuantityBefore.Add(e.QuantityChange)) {
			return fmt.Errorf("%w: entrada %s no cuadra", domain.ErrInvalidQuantity, e.ID)
		}
	}
	t.entries = append(t.entries, entries...)
	return t.done()
}

// ListByCell solo devuelve entradas confirmadas, en orden de inserción.
func (r ledgerRepo) ListByCell(_ context.Context, cell entity.StockCell) ([]*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.LedgerEntry
	for _, e := range r.s.ledger {
		if e.Cell() == cell {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (r ledgerRepo) List(_ context.Context, f entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.LedgerEntry{}
	for _, e := range r.s.ledger {
		if f.ProductID != "" && e.ProductID != f.ProductID {
			continue
		}
		if f.WarehouseID != "" && e.WarehouseID != f.WarehouseID {
			continue
		}
		if f.DocumentID != "" && e.DocumentID != f.DocumentID {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	return page(out, f.Limit, f.Offset), nil
}

// ─── Documentos ───────────────────────────────────────────────────────────────

type docRepo struct {
	s *Store
	t *tx
}

var _ repository.DocumentRepository = docRepo{}

func (r docRepo) Create(_ context.Context, doc *entity.MovementDocument) error {
	t := txOf(r.s, r.t)
	if t.docs == nil {
		t.docs, t.newDocs = map[string]*entity.MovementDocument{}, map[string]bool{}
	}
	t.docs[doc.ID] = doc.Clone()
	t.newDocs[doc.ID] = true
	return t.done()
}

func (r docRepo) lookup(id string) (*entity.MovementDocument, error) {
	if r.t != nil {
		if d, ok := r.t.docs[id]; ok {
			return d.Clone(), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.docs[id]
	if !ok {
		return nil, fmt.Errorf("documento %s: %w", id, domain.ErrNotFound)
	}
	return d.Clone(), nil
}

func (r docRepo) GetByID(_ context.Context, id string) (*entity.MovementDocument, error) {
	return r.lookup(id)
}

func (r docRepo) GetForUpdate(ctx context.Context, id string) (*entity.MovementDocument, error) {
	if r.t != nil {
		if err := r.t.acquire(ctx, docKey(id), false); err != nil {
			return nil, err
		}
	}
	return r.lookup(id)
}

func (r docRepo) Update(_ context.Context, doc *entity.MovementDocument) error {
	if _, err := r.lookup(doc.ID); err != nil {
		return err
	}
	t := txOf(r.s, r.t)
	if t.docs == nil {
		t.docs, t.newDocs = map[string]*entity.MovementDocument{}, map[string]bool{}
	}
	t.docs[doc.ID] = doc.Clone()
	return t.done()
}

func (r docRepo) List(_ context.Context, f entity.DocumentFilter) ([]*entity.MovementDocument, error) {
	r.s.mu.RLock()
	out := []*entity.MovementDocument{}
	for _, d := range r.s.docs {
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.WarehouseID != "" && !d.Touches(f.WarehouseID) {
			continue
		}
		out = append(out, d.Clone())
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Number > out[j].Number
	})
	return page(out, f.Limit, f.Offset), nil
}

// ─── Ajustes ──────────────────────────────────────────────────────────────────

type adjRepo struct {
	s *Store
	t *tx
}

var _ repository.AdjustmentRepository = adjRepo{}

func (r adjRepo) Create(_ context.Context, adj *entity.Adjustment) error {
	t := txOf(r.s, r.t)
	cp := *adj
	t.adjs = append(t.adjs, &cp)
	return t.done()
}

func (r adjRepo) GetByID(_ context.Context, id string) (*entity.Adjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.adjustments[id]
	if !ok {
		return nil, fmt.Errorf("ajuste %s: %w", id, domain.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (r adjRepo) List(_ context.Context, f entity.AdjustmentFilter) ([]*entity.Adjustment, error) {
	r.s.mu.RLock()
	out := []*entity.Adjustment{}
	for _, a := range r.s.adjustments {
		if f.WarehouseID != "" && a.WarehouseID != f.WarehouseID {
			continue
		}
		if f.ProductID != "" && a.ProductID != f.ProductID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Number > out[j].Number
	})
	return page(out, f.Limit, f.Offset), nil
}

// ─── Numeración ───────────────────────────────────────────────────────────────

type sequenceRepo struct {
	s *Store
}

var _ repository.SequenceRepository = sequenceRepo{}

func (r sequenceRepo) Next(_ context.Context, docType entity.DocumentType) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sequences[docType]++
	return r.s.sequences[docType], nil
}

// ─── Datos maestros ───────────────────────────────────────────────────────────

type productRepo struct {
	s *Store
}

var _ repository.ProductRepository = productRepo{}

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return fmt.Errorf("%w: producto %s ya existe", domain.ErrInvalidInput, p.ID)
	}
	if p.SKU != "" {
		if _, ok := r.s.skus[p.SKU]; ok {
			return fmt.Errorf("%w: SKU %s ya existe", domain.ErrInvalidInput, p.SKU)
		}
		r.s.skus[p.SKU] = p.ID
	}
	cp := *p
	r.s.products[p.ID] = &cp
	r.s.totals[p.ID] = decimal.Zero
	return nil
}

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

type warehouseRepo struct {
	s *Store
}

var _ repository.WarehouseRepository = warehouseRepo{}

func (r warehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.warehouses[w.ID]; ok {
		return fmt.Errorf("%w: bodega %s ya existe", domain.ErrInvalidInput, w.ID)
	}
	if w.Code != "" {
		if _, ok := r.s.codes[w.Code]; ok {
			return fmt.Errorf("%w: código %s ya existe", domain.ErrInvalidInput, w.Code)
		}
		r.s.codes[w.Code] = w.ID
	}
	cp := *w
	r.s.warehouses[w.ID] = &cp
	return nil
}

func (r warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, fmt.Errorf("bodega %s: %w", id, domain.ErrNotFound)
	}
	cp := *w
	return &cp, nil
}
