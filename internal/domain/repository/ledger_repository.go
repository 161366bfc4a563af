package repository

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// LedgerRepository puerto del libro de stock. Solo inserta: no existe actualización ni borrado.
type LedgerRepository interface {
	AppendBatch(ctx context.Context, entries []*entity.LedgerEntry) error
	// ListByCell devuelve las entradas de la celda en orden de inserción.
	ListByCell(ctx context.Context, cell entity.StockCell) ([]*entity.LedgerEntry, error)
	List(ctx context.Context, filter entity.LedgerFilter) ([]*entity.LedgerEntry, error)
}
