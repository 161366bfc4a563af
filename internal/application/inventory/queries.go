package inventory

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

// StockQueryUseCase lecturas de stock y del libro. No bloquea.
type StockQueryUseCase struct {
	stockRepo  repository.StockRepository
	ledgerRepo repository.LedgerRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(stockRepo repository.StockRepository, ledgerRepo repository.LedgerRepository) *StockQueryUseCase {
	return &StockQueryUseCase{stockRepo: stockRepo, ledgerRepo: ledgerRepo}
}

// ProductStock stock por bodega y total de un producto.
func (uc *StockQueryUseCase) ProductStock(ctx context.Context, productID string) (*entity.ProductStock, error) {
	return uc.stockRepo.GetProductStock(ctx, productID)
}

// Ledger entradas del libro en orden de inserción.
func (uc *StockQueryUseCase) Ledger(ctx context.Context, filter entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return uc.ledgerRepo.List(ctx, filter)
}
