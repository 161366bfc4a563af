package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

// AdjustmentUseCase ajustes por conteo físico: se crean y aplican en un solo paso.
type AdjustmentUseCase struct {
	txRunner  TxRunner
	adjRepo   repository.AdjustmentRepository
	engine    *MutationEngine
	numbering *NumberingService
	log       *logger.Logger
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(
	txRunner TxRunner,
	adjRepo repository.AdjustmentRepository,
	engine *MutationEngine,
	numbering *NumberingService,
	log *logger.Logger,
) *AdjustmentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AdjustmentUseCase{
		txRunner:  txRunner,
		adjRepo:   adjRepo,
		engine:    engine,
		numbering: numbering,
		log:       log.Named("adjustments"),
	}
}

// CreateAdjustmentInput conteo físico de un producto en una bodega.
type CreateAdjustmentInput struct {
	WarehouseID     string
	ProductID       string
	CountedQuantity decimal.Decimal
	Reason          entity.AdjustmentReason
	Notes           string
	Actor           string
}

// Create lee la cantidad registrada bajo bloqueo, aplica la diferencia (counted - recorded) y persiste
// el ajuste en la misma transacción. Una diferencia negativa nunca produce InsufficientStock porque el
// resultado es el conteo, que no puede ser negativo.
func (uc *AdjustmentUseCase) Create(ctx context.Context, in CreateAdjustmentInput) (*entity.Adjustment, *entity.LedgerEntry, error) {
	if in.ProductID == "" || in.WarehouseID == "" || in.Actor == "" {
		return nil, nil, fmt.Errorf("%w: producto, bodega y actor son obligatorios", domain.ErrInvalidInput)
	}
	if !in.Reason.IsValid() {
		return nil, nil, fmt.Errorf("%w: motivo %q", domain.ErrInvalidInput, in.Reason)
	}
	if err := inventory.CheckCountedQuantity(in.CountedQuantity); err != nil {
		return nil, nil, err
	}
	if err := uc.engine.ensureExists(ctx, []string{in.ProductID}, []string{in.WarehouseID}); err != nil {
		return nil, nil, err
	}

	ctx, span := uc.engine.tel.start(ctx, "adjustments.create",
		attribute.String("product_id", in.ProductID),
		attribute.String("warehouse_id", in.WarehouseID),
	)
	number, err := uc.numbering.Next(ctx, entity.DocumentAdjustment)
	if err != nil {
		end(span, err)
		return nil, nil, err
	}
	cell := entity.StockCell{ProductID: in.ProductID, WarehouseID: in.WarehouseID}
	adj := &entity.Adjustment{
		ID:              uuid.New().String(),
		Number:          number,
		WarehouseID:     in.WarehouseID,
		ProductID:       in.ProductID,
		CountedQuantity: in.CountedQuantity,
		Reason:          in.Reason,
		Notes:           in.Notes,
		CreatedBy:       in.Actor,
	}
	var entry *entity.LedgerEntry
	err = uc.engine.retry.run(ctx, uc.log, "adjust", func() error {
		return uc.txRunner.Run(ctx, func(r TxRepos) error {
			build := func(locked map[entity.StockCell]decimal.Decimal) ([]inventory.StockDelta, error) {
				adj.RecordedQuantity = locked[cell]
				adj.Difference = in.CountedQuantity.Sub(adj.RecordedQuantity)
				return []inventory.StockDelta{{
					Cell:         cell,
					Change:       adj.Difference,
					MovementType: entity.MovementAdjustment,
					Notes:        inventory.AdjustmentNotes(in.Reason, in.Notes),
				}}, nil
			}
			entries, err := uc.engine.mutate(ctx, r, []entity.StockCell{cell}, build, entity.DocumentRef{ID: adj.ID, Number: adj.Number}, in.Actor)
			if err != nil {
				return err
			}
			adj.CreatedAt = entries[0].CreatedAt
			if err := r.Adjustments.Create(ctx, adj); err != nil {
				return err
			}
			entry = entries[0]
			return nil
		})
	})
	end(span, err)
	if err != nil {
		uc.engine.rejected(ctx, "adjust", err)
		uc.log.Warn().Err(err).Str("product_id", in.ProductID).Str("warehouse_id", in.WarehouseID).Msg("ajuste rechazado")
		return nil, nil, err
	}
	uc.log.Info().Str("document_number", adj.Number).Str("product_id", adj.ProductID).Str("warehouse_id", adj.WarehouseID).
		Str("difference", adj.Difference.String()).Str("actor", in.Actor).Msg("ajuste aplicado")
	return adj, entry, nil
}

// Get devuelve el ajuste. ErrNotFound si no existe.
func (uc *AdjustmentUseCase) Get(ctx context.Context, id string) (*entity.Adjustment, error) {
	return uc.adjRepo.GetByID(ctx, id)
}

// List ajustes filtrados por bodega y producto, del más reciente al más antiguo.
func (uc *AdjustmentUseCase) List(ctx context.Context, filter entity.AdjustmentFilter) ([]*entity.Adjustment, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.adjRepo.List(ctx, filter)
}
