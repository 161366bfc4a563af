package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// StockDelta cambio firmado solicitado sobre una celda.
type StockDelta struct {
	Cell         entity.StockCell
	Change       decimal.Decimal
	MovementType entity.MovementType
	Notes        string
}

// PlannedChange cambio ya escalonado: conoce la cantidad antes y después.
type PlannedChange struct {
	StockDelta
	Before decimal.Decimal
	After  decimal.Decimal
}

// StockPlan buffer de cambios de una transacción: aplica los deltas en orden sobre las cantidades
// bloqueadas y rechaza cualquiera que deje una celda negativa. Nada se escribe hasta Commit del llamador.
type StockPlan struct {
	original map[entity.StockCell]decimal.Decimal
	current  map[entity.StockCell]decimal.Decimal
	order    []entity.StockCell
	changes  []PlannedChange
}

// NewStockPlan parte de las cantidades leídas con bloqueo.
func NewStockPlan(locked map[entity.StockCell]decimal.Decimal) *StockPlan {
	p := &StockPlan{
		original: make(map[entity.StockCell]decimal.Decimal, len(locked)),
		current:  make(map[entity.StockCell]decimal.Decimal, len(locked)),
	}
	for c, q := range locked {
		p.original[c] = q
		p.current[c] = q
	}
	return p
}

// Quantity cantidad escalonada actual de la celda.
func (p *StockPlan) Quantity(cell entity.StockCell) decimal.Decimal {
	if q, ok := p.current[cell]; ok {
		return q
	}
	return decimal.Zero
}

// Stage aplica un delta. Devuelve *domain.InsufficientStockError si la celda quedaría negativa;
// en ese caso el plan no cambia.
func (p *StockPlan) Stage(d StockDelta) (PlannedChange, error) {
	if !d.MovementType.IsValid() {
		return PlannedChange{}, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, d.MovementType)
	}
	if !d.Change.IsInteger() {
		return PlannedChange{}, fmt.Errorf("%w: %s no es entera", domain.ErrInvalidQuantity, d.Change.String())
	}
	before := p.Quantity(d.Cell)
	after := before.Add(d.Change)
	if after.IsNegative() {
		return PlannedChange{}, &domain.InsufficientStockError{
			ProductID:   d.Cell.ProductID,
			WarehouseID: d.Cell.WarehouseID,
			Available:   before,
			Requested:   d.Change.Neg(),
		}
	}
	if _, seen := p.original[d.Cell]; !seen {
		p.original[d.Cell] = decimal.Zero
	}
	if !p.touched(d.Cell) {
		p.order = append(p.order, d.Cell)
	}
	p.current[d.Cell] = after
	pc := PlannedChange{StockDelta: d, Before: before, After: after}
	p.changes = append(p.changes, pc)
	return pc, nil
}

// StageAll escalona los deltas en orden; al primer error devuelve sin más cambios.
func (p *StockPlan) StageAll(deltas []StockDelta) error {
	for _, d := range deltas {
		if _, err := p.Stage(d); err != nil {
			return err
		}
	}
	return nil
}

func (p *StockPlan) touched(cell entity.StockCell) bool {
	for _, c := range p.order {
		if c == cell {
			return true
		}
	}
	return false
}

// Changes cambios escalonados en orden de aplicación (uno por entrada del libro).
func (p *StockPlan) Changes() []PlannedChange {
	out := make([]PlannedChange, len(p.changes))
	copy(out, p.changes)
	return out
}

// CellChanges cambio neto por celda tocada, en orden de bloqueo.
func (p *StockPlan) CellChanges() []entity.CellChange {
	cells := entity.SortCells(p.order)
	out := make([]entity.CellChange, 0, len(cells))
	for _, c := range cells {
		out = append(out, entity.CellChange{Cell: c, Before: p.original[c], After: p.current[c]})
	}
	return out
}

// LedgerEntries construye una entrada del libro por cambio escalonado.
func (p *StockPlan) LedgerEntries(ref entity.DocumentRef, actor string, now time.Time, newID func() string) []*entity.LedgerEntry {
	entries := make([]*entity.LedgerEntry, 0, len(p.changes))
	for _, c := range p.changes {
		entries = append(entries, &entity.LedgerEntry{
			ID:             newID(),
			ProductID:      c.Cell.ProductID,
			WarehouseID:    c.Cell.WarehouseID,
			MovementType:   c.MovementType,
			DocumentNumber: ref.Number,
			DocumentID:     ref.ID,
			QuantityBefore: c.Before,
			QuantityChange: c.Change,
			QuantityAfter:  c.After,
			Notes:          c.Notes,
			Actor:          actor,
			CreatedAt:      now,
		})
	}
	return entries
}
