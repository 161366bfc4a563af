package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

// Chequeos de consistencia.
const (
	CheckTotals       = "total_equals_sum"
	CheckLedgerChain  = "ledger_chain"
	CheckLedgerMatch  = "ledger_matches_stock"
	verifyConcurrency = 8
)

// ConsistencyIssue una violación encontrada.
type ConsistencyIssue struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id,omitempty"`
	Check       string `json:"check"`
	Detail      string `json:"detail"`
}

// ConsistencyReport resultado de VerifyAll.
type ConsistencyReport struct {
	ProductsChecked int                `json:"products_checked"`
	CellsChecked    int                `json:"cells_checked"`
	Issues          []ConsistencyIssue `json:"issues"`
}

// OK indica si no hubo violaciones.
func (r *ConsistencyReport) OK() bool { return len(r.Issues) == 0 }

// ConsistencyChecker verificaciones de diagnóstico; no se invoca en el camino de escritura.
type ConsistencyChecker struct {
	txRunner   TxRunner
	stockRepo  repository.StockRepository
	ledgerRepo repository.LedgerRepository
	log        *logger.Logger
}

// NewConsistencyChecker construye el verificador.
func NewConsistencyChecker(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	ledgerRepo repository.LedgerRepository,
	log *logger.Logger,
) *ConsistencyChecker {
	if log == nil {
		log = logger.Nop()
	}
	return &ConsistencyChecker{txRunner: txRunner, stockRepo: stockRepo, ledgerRepo: ledgerRepo, log: log.Named("consistency")}
}

// VerifyProduct compara TotalStock con la suma por bodega.
func (c *ConsistencyChecker) VerifyProduct(ctx context.Context, productID string) (bool, error) {
	stock, err := c.stockRepo.GetProductStock(ctx, productID)
	if err != nil {
		return false, err
	}
	ok := inventory.TotalsMatch(stock)
	if !ok {
		c.log.Error().Str("product_id", productID).Str("total", stock.TotalStock.String()).
			Str("sum", stock.SumPerWarehouse().String()).Msg("total de stock no coincide con la suma por bodega")
	}
	return ok, nil
}

// VerifyLedgerChain reproduce las entradas de la celda en orden de inserción y comprueba el encadenamiento.
func (c *ConsistencyChecker) VerifyLedgerChain(ctx context.Context, productID, warehouseID string) (bool, error) {
	entries, err := c.ledgerRepo.ListByCell(ctx, entity.StockCell{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return false, err
	}
	_, brk := inventory.CheckChain(entries)
	if brk != nil {
		c.log.Error().Str("product_id", productID).Str("warehouse_id", warehouseID).Str("entry_id", brk.EntryID).
			Str("expected", brk.Expected.String()).Str("found", brk.Found.String()).Msg("cadena del libro rota")
	}
	return brk == nil, nil
}

// VerifyLedgerMatchesStock comprueba que la reconstrucción del libro coincide con la cantidad actual.
// Celda y libro se leen en la misma foto de solo lectura: no crea celdas ni bloquea al motor.
func (c *ConsistencyChecker) VerifyLedgerMatchesStock(ctx context.Context, productID, warehouseID string) (bool, error) {
	cell := entity.StockCell{ProductID: productID, WarehouseID: warehouseID}
	var ok bool
	err := c.txRunner.RunReadOnly(ctx, func(r TxRepos) error {
		stock, err := r.Stock.GetProductStock(ctx, productID)
		if err != nil {
			return err
		}
		entries, err := r.Ledger.ListByCell(ctx, cell)
		if err != nil {
			return err
		}
		current := stock.Quantity(warehouseID)
		replayed, brk := inventory.CheckChain(entries)
		ok = brk == nil && replayed.Equal(current)
		if !ok {
			c.log.Error().Str("product_id", productID).Str("warehouse_id", warehouseID).
				Str("stock", current.String()).Str("ledger", replayed.String()).Msg("libro y stock no coinciden")
		}
		return nil
	})
	return ok, err
}

// VerifyAll corre los tres chequeos sobre todos los productos con stock, en paralelo.
func (c *ConsistencyChecker) VerifyAll(ctx context.Context) (*ConsistencyReport, error) {
	ids, err := c.stockRepo.ListProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	report := &ConsistencyReport{ProductsChecked: len(ids)}
	var mu sync.Mutex
	add := func(issue ConsistencyIssue, cells int) {
		mu.Lock()
		defer mu.Unlock()
		report.CellsChecked += cells
		if issue.Check != "" {
			report.Issues = append(report.Issues, issue)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			stock, err := c.stockRepo.GetProductStock(gctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if !inventory.TotalsMatch(stock) {
				add(ConsistencyIssue{ProductID: id, Check: CheckTotals,
					Detail: fmt.Sprintf("total %s, suma %s", stock.TotalStock, stock.SumPerWarehouse())}, 0)
			}
			for wh := range stock.PerWarehouse {
				chainOK, err := c.VerifyLedgerChain(gctx, id, wh)
				if err != nil {
					return err
				}
				if !chainOK {
					add(ConsistencyIssue{ProductID: id, WarehouseID: wh, Check: CheckLedgerChain, Detail: "encadenamiento roto"}, 0)
					continue
				}
				matchOK, err := c.VerifyLedgerMatchesStock(gctx, id, wh)
				if err != nil {
					return err
				}
				if !matchOK {
					add(ConsistencyIssue{ProductID: id, WarehouseID: wh, Check: CheckLedgerMatch, Detail: "libro y stock difieren"}, 0)
				}
			}
			add(ConsistencyIssue{}, len(stock.PerWarehouse))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(report.Issues, func(i, j int) bool {
		a, b := report.Issues[i], report.Issues[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.WarehouseID < b.WarehouseID
	})
	if !report.OK() {
		c.log.Error().Int("issues", len(report.Issues)).Msg("verificación de consistencia con violaciones")
	}
	return report, nil
}
