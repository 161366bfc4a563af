package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// StockRepository define el puerto para leer y escribir el stock de productos.
// Las escrituras solo las hace el motor de inventario, dentro de una transacción.
type StockRepository interface {
	// GetProductStock devuelve stock por bodega y total. ErrNotFound si el producto no existe.
	GetProductStock(ctx context.Context, productID string) (*entity.ProductStock, error)
	// GetCellsForUpdate bloquea las celdas hasta el fin de la transacción y devuelve sus cantidades
	// (0 para celdas sin registro). Las celdas llegan ordenadas con entity.SortCells.
	GetCellsForUpdate(ctx context.Context, cells []entity.StockCell) (map[entity.StockCell]decimal.Decimal, error)
	// ApplyCellChanges fija la cantidad final de cada celda y ajusta el total del producto por el delta.
	ApplyCellChanges(ctx context.Context, changes []entity.CellChange) error
	// ListProductIDs lista los productos con registro de stock (diagnóstico).
	ListProductIDs(ctx context.Context) ([]string, error)
}
