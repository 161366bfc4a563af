package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// TotalsMatch indica si TotalStock coincide con la suma por bodega.
func TotalsMatch(stock *entity.ProductStock) bool {
	return stock.TotalStock.Equal(stock.SumPerWarehouse())
}

// ChainBreak describe la primera entrada del libro que rompe el encadenamiento.
type ChainBreak struct {
	Index    int
	EntryID  string
	Expected decimal.Decimal
	Found    decimal.Decimal
}

// CheckChain reproduce las entradas de una celda en orden de inserción: cada QuantityBefore debe
// ser el QuantityAfter anterior (0 para la primera) y cada entrada debe cumplir after = before + change.
// Devuelve la cantidad final reconstruida y la primera ruptura, si existe.
func CheckChain(entries []*entity.LedgerEntry) (decimal.Decimal, *ChainBreak) {
	ordered := make([]*entity.LedgerEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	running := decimal.Zero
	for i, e := range ordered {
		if !e.QuantityBefore.Equal(running) {
			return running, &ChainBreak{Index: i, EntryID: e.ID, Expected: running, Found: e.QuantityBefore}
		}
		after := e.QuantityBefore.Add(e.QuantityChange)
		if !e.QuantityAfter.Equal(after) {
			return running, &ChainBreak{Index: i, EntryID: e.ID, Expected: after, Found: e.QuantityAfter}
		}
		running = e.QuantityAfter
	}
	return running, nil
}
