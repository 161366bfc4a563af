package inventory

import (
	"context"
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

// DocumentUseCase ciclo de vida de recepciones, entregas y traslados.
// validate es el único disparador del motor; cancel nunca toca el stock.
type DocumentUseCase struct {
	txRunner  TxRunner
	docRepo   repository.DocumentRepository
	engine    *MutationEngine
	numbering *NumberingService
	locker    DocumentLocker
	log       *logger.Logger
	now       func() time.Time
}

// NewDocumentUseCase construye el caso de uso. locker puede ser nil (una sola instancia).
func NewDocumentUseCase(
	txRunner TxRunner,
	docRepo repository.DocumentRepository,
	engine *MutationEngine,
	numbering *NumberingService,
	locker DocumentLocker,
	log *logger.Logger,
) *DocumentUseCase {
	if locker == nil {
		locker = NopLocker()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentUseCase{
		txRunner:  txRunner,
		docRepo:   docRepo,
		engine:    engine,
		numbering: numbering,
		locker:    locker,
		log:       log.Named("documents"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LineInput línea solicitada.
type LineInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateDocumentInput entrada para crear un documento en borrador.
// Recepción y entrega usan WarehouseID; el traslado usa FromWarehouseID y ToWarehouseID.
type CreateDocumentInput struct {
	Type            entity.DocumentType
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	Partner         string
	Notes           string
	Items           []LineInput
	Actor           string
}

// EditDocumentInput reemplaza el contenido de un borrador. El tipo y el número no cambian.
type EditDocumentInput struct {
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	Partner         string
	Notes           string
	Items           []LineInput
	Actor           string
}

func toItems(lines []LineInput) []entity.LineItem {
	items := make([]entity.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, entity.LineItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return items
}

func warehousesOf(doc *entity.MovementDocument) []string {
	if doc.Type == entity.DocumentTransfer {
		return []string{doc.FromWarehouseID, doc.ToWarehouseID}
	}
	return []string{doc.WarehouseID}
}

func productsOf(doc *entity.MovementDocument) []string {
	ids := make([]string, 0, len(doc.Items))
	for _, it := range doc.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Create valida forma y datos maestros, asigna número y persiste el documento en draft.
func (uc *DocumentUseCase) Create(ctx context.Context, in CreateDocumentInput) (*entity.MovementDocument, error) {
	if in.Actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	if in.Type == entity.DocumentAdjustment {
		return nil, fmt.Errorf("%w: los ajustes se crean con AdjustmentUseCase", domain.ErrInvalidInput)
	}
	now := uc.now()
	doc := &entity.MovementDocument{
		ID:              uuid.New().String(),
		Type:            in.Type,
		Status:          entity.StatusDraft,
		WarehouseID:     in.WarehouseID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Partner:         in.Partner,
		Items:           toItems(in.Items),
		Notes:           in.Notes,
		CreatedBy:       in.Actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if doc.Type == entity.DocumentTransfer {
		doc.WarehouseID = ""
	} else {
		doc.FromWarehouseID, doc.ToWarehouseID = "", ""
	}
	if err := inventory.CheckDocument(doc); err != nil {
		return nil, err
	}
	if err := uc.engine.ensureExists(ctx, productsOf(doc), warehousesOf(doc)); err != nil {
		return nil, err
	}

	ctx, span := uc.engine.tel.start(ctx, "documents.create", attribute.String("document_type", string(doc.Type)))
	number, err := uc.numbering.Next(ctx, doc.Type)
	if err == nil {
		doc.Number = number
		// cabecera e ítems en la misma tx: un fallo en los ítems no deja cabecera huérfana
		err = uc.txRunner.Run(ctx, func(r TxRepos) error {
			return r.Documents.Create(ctx, doc)
		})
	}
	end(span, err)
	if err != nil {
		uc.log.Error().Err(err).Str("document_type", string(doc.Type)).Str("document_number", doc.Number).
			Msg("no se pudo crear el documento")
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("document_number", doc.Number).Str("actor", in.Actor).
		Msg("documento creado")
	return doc, nil
}

// Edit reemplaza el contenido de un documento en draft.
func (uc *DocumentUseCase) Edit(ctx context.Context, id string, in EditDocumentInput) (*entity.MovementDocument, error) {
	if in.Actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	var out *entity.MovementDocument
	err := uc.locked(ctx, id, func() error {
		return uc.txRunner.Run(ctx, func(r TxRepos) error {
			doc, err := r.Documents.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := inventory.CheckEditable(doc); err != nil {
				return err
			}
			if doc.Type == entity.DocumentTransfer {
				doc.FromWarehouseID, doc.ToWarehouseID = in.FromWarehouseID, in.ToWarehouseID
			} else {
				doc.WarehouseID = in.WarehouseID
			}
			doc.Partner = in.Partner
			doc.Notes = in.Notes
			doc.Items = toItems(in.Items)
			doc.UpdatedAt = uc.now()
			if err := inventory.CheckDocument(doc); err != nil {
				return err
			}
			if err := uc.engine.ensureExists(ctx, productsOf(doc), warehousesOf(doc)); err != nil {
				return err
			}
			if err := r.Documents.Update(ctx, doc); err != nil {
				return err
			}
			out = doc
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Confirm draft -> waiting.
func (uc *DocumentUseCase) Confirm(ctx context.Context, id, actor string) (*entity.MovementDocument, error) {
	return uc.transition(ctx, id, actor, inventory.EventConfirm, inventory.Confirm)
}

// MarkReady waiting -> ready.
func (uc *DocumentUseCase) MarkReady(ctx context.Context, id, actor string) (*entity.MovementDocument, error) {
	return uc.transition(ctx, id, actor, inventory.EventMarkReady, inventory.MarkReady)
}

// Cancel draft|waiting|ready -> canceled, sin efecto sobre el stock.
func (uc *DocumentUseCase) Cancel(ctx context.Context, id, actor string) (*entity.MovementDocument, error) {
	return uc.transition(ctx, id, actor, inventory.EventCancel, inventory.Cancel)
}

func (uc *DocumentUseCase) transition(
	ctx context.Context,
	id, actor string,
	ev inventory.DocumentEvent,
	apply func(*entity.MovementDocument, time.Time) error,
) (*entity.MovementDocument, error) {
	var out *entity.MovementDocument
	err := uc.locked(ctx, id, func() error {
		return uc.txRunner.Run(ctx, func(r TxRepos) error {
			doc, err := r.Documents.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := apply(doc, uc.now()); err != nil {
				return err
			}
			if err := r.Documents.Update(ctx, doc); err != nil {
				return err
			}
			out = doc
			return nil
		})
	})
	uc.recordTransition(ctx, ev, err)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", out.ID).Str("document_number", out.Number).
		Str("status", string(out.Status)).Str("actor", actor).Msg("documento actualizado")
	return out, nil
}

// Validate aplica los efectos de stock de todas las líneas y pasa el documento a done, en una sola
// transacción: o se escriben todas las celdas, todas las entradas del libro y el estado, o nada.
// Una segunda llamada devuelve ErrAlreadyValidated sin efectos.
func (uc *DocumentUseCase) Validate(ctx context.Context, id, actor string) (*entity.MovementDocument, []*entity.LedgerEntry, error) {
	if actor == "" {
		return nil, nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	ctx, span := uc.engine.tel.start(ctx, "documents.validate", attribute.String("document_id", id))
	var (
		out     *entity.MovementDocument
		entries []*entity.LedgerEntry
	)
	err := uc.locked(ctx, id, func() error {
		return uc.engine.retry.run(ctx, uc.log, "validate", func() error {
			return uc.txRunner.Run(ctx, func(r TxRepos) error {
				doc, err := r.Documents.GetForUpdate(ctx, id)
				if err != nil {
					return err
				}
				// Falla antes de tocar el stock si el documento ya es terminal.
				if _, err := inventory.NextStatus(doc.Status, inventory.EventValidate); err != nil {
					return err
				}
				deltas, err := inventory.DocumentEffects(doc)
				if err != nil {
					return err
				}
				ref := entity.DocumentRef{ID: doc.ID, Number: doc.Number}
				written, err := uc.engine.mutate(ctx, r, inventory.DeltaCells(deltas), fixedDeltas(deltas), ref, actor)
				if err != nil {
					return err
				}
				if err := inventory.MarkDone(doc, uc.now()); err != nil {
					return err
				}
				if err := r.Documents.Update(ctx, doc); err != nil {
					return err
				}
				out, entries = doc, written
				return nil
			})
		})
	})
	end(span, err)
	uc.recordTransition(ctx, inventory.EventValidate, err)
	if err != nil {
		uc.engine.rejected(ctx, "validate", err)
		uc.log.Warn().Err(err).Str("document_id", id).Str("actor", actor).Msg("validación rechazada")
		return nil, nil, err
	}
	uc.log.Info().Str("document_id", out.ID).Str("document_number", out.Number).
		Int("ledger_entries", len(entries)).Str("actor", actor).Msg("documento validado")
	return out, entries, nil
}

// Get devuelve el documento. ErrNotFound si no existe.
func (uc *DocumentUseCase) Get(ctx context.Context, id string) (*entity.MovementDocument, error) {
	return uc.docRepo.GetByID(ctx, id)
}

// List documentos filtrados por tipo, estado y bodega (un traslado coincide por origen o destino).
func (uc *DocumentUseCase) List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.MovementDocument, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.docRepo.List(ctx, filter)
}

func (uc *DocumentUseCase) locked(ctx context.Context, id string, fn func() error) error {
	unlock, err := uc.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			uc.log.Warn().Err(uerr).Str("document_id", id).Msg("no se pudo liberar el bloqueo del documento")
		}
	}()
	return fn()
}

func (uc *DocumentUseCase) recordTransition(ctx context.Context, ev inventory.DocumentEvent, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	uc.engine.tel.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", string(ev)),
		attribute.String("result", result),
	))
}
