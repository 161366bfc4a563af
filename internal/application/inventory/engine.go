package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

// MutationEngine es la única vía de escritura del stock: bloquea las celdas (producto, bodega) en orden,
// escalona los deltas, rechaza cualquier resultado negativo y escribe stock y libro en la misma transacción.
type MutationEngine struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	retry         RetryPolicy
	log           *logger.Logger
	tel           *instruments
	now           func() time.Time
	newID         func() string
}

// NewMutationEngine construye el motor.
func NewMutationEngine(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	retry RetryPolicy,
	log *logger.Logger,
) *MutationEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &MutationEngine{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		retry:         retry,
		log:           log.Named("stock_engine"),
		tel:           newInstruments(),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return uuid.New().String() },
	}
}

// ApplyInput un cambio firmado sobre una celda.
// Delta cero solo se admite en ajustes (conteo que coincide con lo registrado).
type ApplyInput struct {
	ProductID    string
	WarehouseID  string
	Delta        decimal.Decimal
	MovementType entity.MovementType
	Document     entity.DocumentRef
	Actor        string
	Notes        string
}

// Apply lee la cantidad actual de la celda (0 si no existe), rechaza con InsufficientStock si quedaría
// negativa y, si no, actualiza celda y total del producto y agrega una entrada al libro, todo o nada.
func (e *MutationEngine) Apply(ctx context.Context, in ApplyInput) (*entity.LedgerEntry, error) {
	if in.ProductID == "" || in.WarehouseID == "" || in.Actor == "" {
		return nil, fmt.Errorf("%w: producto, bodega y actor son obligatorios", domain.ErrInvalidInput)
	}
	if !in.MovementType.IsValid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.MovementType)
	}
	if !in.Delta.IsInteger() {
		return nil, fmt.Errorf("%w: %s no es entera", domain.ErrInvalidQuantity, in.Delta.String())
	}
	if in.Delta.IsZero() && in.MovementType != entity.MovementAdjustment {
		return nil, fmt.Errorf("%w: el cambio no puede ser cero", domain.ErrInvalidQuantity)
	}
	if err := e.ensureExists(ctx, []string{in.ProductID}, []string{in.WarehouseID}); err != nil {
		return nil, err
	}

	ctx, span := e.tel.start(ctx, "stock.apply",
		attribute.String("product_id", in.ProductID),
		attribute.String("warehouse_id", in.WarehouseID),
		attribute.String("movement_type", string(in.MovementType)),
	)
	delta := inventory.StockDelta{
		Cell:         entity.StockCell{ProductID: in.ProductID, WarehouseID: in.WarehouseID},
		Change:       in.Delta,
		MovementType: in.MovementType,
		Notes:        in.Notes,
	}
	var entry *entity.LedgerEntry
	err := e.retry.run(ctx, e.log, "apply", func() error {
		return e.txRunner.Run(ctx, func(r TxRepos) error {
			entries, err := e.mutate(ctx, r, []entity.StockCell{delta.Cell}, fixedDeltas([]inventory.StockDelta{delta}), in.Document, in.Actor)
			if err != nil {
				return err
			}
			entry = entries[0]
			return nil
		})
	})
	end(span, err)
	if err != nil {
		e.rejected(ctx, "apply", err)
		return nil, err
	}
	return entry, nil
}

// deltaBuilder calcula los deltas a partir de las cantidades ya bloqueadas.
type deltaBuilder func(locked map[entity.StockCell]decimal.Decimal) ([]inventory.StockDelta, error)

func fixedDeltas(deltas []inventory.StockDelta) deltaBuilder {
	return func(map[entity.StockCell]decimal.Decimal) ([]inventory.StockDelta, error) { return deltas, nil }
}

// mutate corre dentro de la transacción del llamador. Bloquea todas las celdas en un solo lote
// (orden producto, bodega), escalona los deltas en orden y solo entonces escribe celdas y libro.
// Cualquier error deja la transacción para Rollback sin escrituras.
func (e *MutationEngine) mutate(
	ctx context.Context,
	r TxRepos,
	cells []entity.StockCell,
	build deltaBuilder,
	ref entity.DocumentRef,
	actor string,
) ([]*entity.LedgerEntry, error) {
	locked, err := r.Stock.GetCellsForUpdate(ctx, entity.SortCells(cells))
	if err != nil {
		return nil, err
	}
	deltas, err := build(locked)
	if err != nil {
		return nil, err
	}
	plan := inventory.NewStockPlan(locked)
	if err := plan.StageAll(deltas); err != nil {
		return nil, err
	}
	for _, c := range plan.Changes() {
		if _, ok := locked[c.Cell]; !ok {
			return nil, fmt.Errorf("%w: celda %s/%s no bloqueada", domain.ErrConcurrencyConflict, c.Cell.ProductID, c.Cell.WarehouseID)
		}
	}
	if err := r.Stock.ApplyCellChanges(ctx, plan.CellChanges()); err != nil {
		return nil, err
	}
	entries := plan.LedgerEntries(ref, actor, e.now(), e.newID)
	if err := r.Ledger.AppendBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("libro de stock: %w", err)
	}
	e.tel.ledgerRows.Add(ctx, int64(len(entries)))
	return entries, nil
}

// ensureExists falla con ErrNotFound si algún producto o bodega no existe.
func (e *MutationEngine) ensureExists(ctx context.Context, productIDs, warehouseIDs []string) error {
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := e.productRepo.GetByID(ctx, id); err != nil {
			return fmt.Errorf("producto %s: %w", id, err)
		}
	}
	for _, id := range warehouseIDs {
		if id == "" {
			continue
		}
		if _, err := e.warehouseRepo.GetByID(ctx, id); err != nil {
			return fmt.Errorf("bodega %s: %w", id, err)
		}
	}
	return nil
}

func (e *MutationEngine) rejected(ctx context.Context, op string, err error) {
	kind := "other"
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		kind = "insufficient_stock"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		kind = "concurrency_conflict"
	case errors.Is(err, domain.ErrInvalidTransition):
		kind = "invalid_transition"
	case errors.Is(err, domain.ErrNotFound):
		kind = "not_found"
	}
	e.tel.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op), attribute.String("kind", kind)))
}
