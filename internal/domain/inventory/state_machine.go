package inventory

import (
	"fmt"
	"time"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// DocumentEvent evento que dispara una transición del ciclo de vida.
type DocumentEvent string

// Eventos del ciclo de vida de recepciones, entregas y traslados.
const (
	EventEdit      DocumentEvent = "edit"
	EventConfirm   DocumentEvent = "confirm"
	EventMarkReady DocumentEvent = "mark_ready"
	EventValidate  DocumentEvent = "validate"
	EventCancel    DocumentEvent = "cancel"
)

// transitions: estado origen -> evento -> estado destino. done y canceled no tienen salidas.
var transitions = map[entity.DocumentStatus]map[DocumentEvent]entity.DocumentStatus{
	entity.StatusDraft: {
		EventEdit:     entity.StatusDraft,
		EventConfirm:  entity.StatusWaiting,
		EventValidate: entity.StatusDone,
		EventCancel:   entity.StatusCanceled,
	},
	entity.StatusWaiting: {
		EventMarkReady: entity.StatusReady,
		EventValidate:  entity.StatusDone,
		EventCancel:    entity.StatusCanceled,
	},
	entity.StatusReady: {
		EventValidate: entity.StatusDone,
		EventCancel:   entity.StatusCanceled,
	},
}

// NextStatus devuelve el estado destino o el error de transición correspondiente.
func NextStatus(from entity.DocumentStatus, ev DocumentEvent) (entity.DocumentStatus, error) {
	if from == entity.StatusDone && ev == EventValidate {
		return "", domain.ErrAlreadyValidated
	}
	if from.IsTerminal() {
		return "", domain.ErrAlreadyTerminal
	}
	to, ok := transitions[from][ev]
	if !ok {
		return "", fmt.Errorf("%w: %s desde %s", domain.ErrInvalidTransition, ev, from)
	}
	return to, nil
}

// CheckEditable falla si el documento ya no está en borrador.
func CheckEditable(doc *entity.MovementDocument) error {
	_, err := NextStatus(doc.Status, EventEdit)
	return err
}

// Confirm pasa el documento de draft a waiting.
func Confirm(doc *entity.MovementDocument, now time.Time) error {
	return transition(doc, EventConfirm, now)
}

// MarkReady pasa el documento de waiting a ready.
func MarkReady(doc *entity.MovementDocument, now time.Time) error {
	return transition(doc, EventMarkReady, now)
}

// Cancel pasa el documento a canceled sin efecto sobre el stock.
func Cancel(doc *entity.MovementDocument, now time.Time) error {
	return transition(doc, EventCancel, now)
}

// MarkDone pasa el documento a done, fija ValidatedAt y la cantidad atendida de cada línea.
// El llamador debe haber aplicado los efectos de stock en la misma transacción.
func MarkDone(doc *entity.MovementDocument, now time.Time) error {
	if err := transition(doc, EventValidate, now); err != nil {
		return err
	}
	validatedAt := now
	doc.ValidatedAt = &validatedAt
	for i := range doc.Items {
		q := doc.Items[i].Quantity
		doc.Items[i].FulfilledQuantity = &q
	}
	return nil
}

func transition(doc *entity.MovementDocument, ev DocumentEvent, now time.Time) error {
	to, err := NextStatus(doc.Status, ev)
	if err != nil {
		return err
	}
	doc.Status = to
	doc.UpdatedAt = now
	return nil
}
