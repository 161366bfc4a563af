package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// TxRunner implementa inventory.TxRunner sobre el Store.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

var _ appinventory.TxRunner = (*TxRunner)(nil)

// Run ejecuta fn con repositorios atados a una transacción. Si fn falla, lo escalonado se descarta.
// Los bloqueos se liberan siempre al terminar.
func (r *TxRunner) Run(ctx context.Context, fn func(repos appinventory.TxRepos) error) error {
	t := &tx{s: r.s}
	defer t.release()
	repos := appinventory.TxRepos{
		Stock:       stockRepo{s: r.s, t: t},
		Ledger:      ledgerRepo{s: r.s, t: t},
		Documents:   docRepo{s: r.s, t: t},
		Adjustments: adjRepo{s: r.s, t: t},
	}
	if err := fn(repos); err != nil {
		return err
	}
	return t.commit()
}

// RunReadOnly ejecuta fn sobre una copia del Store tomada bajo el mutex: lo que fn lee es una foto
// consistente y no toma bloqueos de celda. Cualquier escritura se queda en la copia.
func (r *TxRunner) RunReadOnly(_ context.Context, fn func(repos appinventory.TxRepos) error) error {
	snap := r.s.snapshot()
	return fn(appinventory.TxRepos{
		Stock:       stockRepo{s: snap},
		Ledger:      ledgerRepo{s: snap},
		Documents:   docRepo{s: snap},
		Adjustments: adjRepo{s: snap},
	})
}

// tx cambios escalonados de una transacción. auto confirma cada escritura de inmediato (sin bloqueos).
type tx struct {
	s    *Store
	auto bool

	held      map[string]*semaphore.Weighted
	lockedSet bool

	cellChanges []entity.CellChange
	staged      map[entity.StockCell]decimal.Decimal
	entries     []*entity.LedgerEntry
	docs        map[string]*entity.MovementDocument
	newDocs     map[string]bool
	adjs        []*entity.Adjustment
}

func (t *tx) acquire(ctx context.Context, key string, try bool) error {
	if t.auto {
		return nil
	}
	if _, ok := t.held[key]; ok {
		return nil
	}
	l := t.s.lockFor(key)
	if try {
		if !l.TryAcquire(1) {
			return fmt.Errorf("%w: %s ocupado", domain.ErrConcurrencyConflict, key)
		}
	} else if err := l.Acquire(ctx, 1); err != nil {
		return err
	}
	if t.held == nil {
		t.held = map[string]*semaphore.Weighted{}
	}
	t.held[key] = l
	return nil
}

func (t *tx) release() {
	for _, l := range t.held {
		l.Release(1)
	}
	t.held = nil
}

// done confirma de inmediato en modo auto.
func (t *tx) done() error {
	if !t.auto {
		return nil
	}
	return t.commit()
}

// commit valida unicidad y aplica todo bajo el mutex del Store, o nada.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range t.docs {
		if !t.newDocs[id] {
			continue
		}
		if _, ok := s.docs[id]; ok {
			return fmt.Errorf("%w: documento %s ya existe", domain.ErrDuplicateIdentifier, id)
		}
		if owner, ok := s.numbers[doc.Number]; ok && owner != id {
			return fmt.Errorf("%w: número %s", domain.ErrDuplicateIdentifier, doc.Number)
		}
	}
	for _, a := range t.adjs {
		if _, ok := s.numbers[a.Number]; ok {
			return fmt.Errorf("%w: número %s", domain.ErrDuplicateIdentifier, a.Number)
		}
	}
	for _, c := range t.cellChanges {
		if !s.cells[c.Cell].Equal(c.Before) {
			return fmt.Errorf("%w: la celda %s/%s cambió", domain.ErrConcurrencyConflict, c.Cell.ProductID, c.Cell.WarehouseID)
		}
	}

	for _, c := range t.cellChanges {
		s.cells[c.Cell] = c.After
		s.totals[c.Cell.ProductID] = s.totals[c.Cell.ProductID].Add(c.Delta())
	}
	for _, e := range t.entries {
		s.ledgerSeq++
		e.Sequence = s.ledgerSeq
		s.ledger = append(s.ledger, cloneEntry(e))
		s.stockAt[e.ProductID] = e.CreatedAt
	}
	for id, doc := range t.docs {
		s.docs[id] = doc.Clone()
		s.numbers[doc.Number] = id
	}
	for _, a := range t.adjs {
		cp := *a
		s.adjustments[a.ID] = &cp
		s.numbers[a.Number] = a.ID
	}

	t.cellChanges, t.staged, t.entries, t.docs, t.newDocs, t.adjs = nil, nil, nil, nil, nil, nil
	return nil
}

func cloneEntry(e *entity.LedgerEntry) *entity.LedgerEntry {
	cp := *e
	return &cp
}
