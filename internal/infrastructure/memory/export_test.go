package memory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// CorruptCell fija una celda sin pasar por el motor ni el libro.
func (s *Store) CorruptCell(cell entity.StockCell, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[cell] = qty
}
