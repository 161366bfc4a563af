package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/inventory"
)

func draftDelivery() *entity.MovementDocument {
	return &entity.MovementDocument{
		ID:          "doc-1",
		Number:      "DEL000001",
		Type:        entity.DocumentDelivery,
		Status:      entity.StatusDraft,
		WarehouseID: "w1",
		Items:       []entity.LineItem{{ProductID: "p1", Quantity: d(3)}, {ProductID: "p2", Quantity: d(4)}},
	}
}

func TestNextStatus_TransicionesPermitidas(t *testing.T) {
	cases := []struct {
		from entity.DocumentStatus
		ev   inventory.DocumentEvent
		to   entity.DocumentStatus
	}{
		{entity.StatusDraft, inventory.EventEdit, entity.StatusDraft},
		{entity.StatusDraft, inventory.EventConfirm, entity.StatusWaiting},
		{entity.StatusDraft, inventory.EventValidate, entity.StatusDone},
		{entity.StatusDraft, inventory.EventCancel, entity.StatusCanceled},
		{entity.StatusWaiting, inventory.EventMarkReady, entity.StatusReady},
		{entity.StatusWaiting, inventory.EventValidate, entity.StatusDone},
		{entity.StatusWaiting, inventory.EventCancel, entity.StatusCanceled},
		{entity.StatusReady, inventory.EventValidate, entity.StatusDone},
		{entity.StatusReady, inventory.EventCancel, entity.StatusCanceled},
	}
	for _, tc := range cases {
		to, err := inventory.NextStatus(tc.from, tc.ev)
		require.NoError(t, err, "%s -%s->", tc.from, tc.ev)
		assert.Equal(t, tc.to, to)
	}
}

func TestNextStatus_EstadosTerminalesNoAdmitenTransiciones(t *testing.T) {
	_, err := inventory.NextStatus(entity.StatusDone, inventory.EventValidate)
	assert.ErrorIs(t, err, domain.ErrAlreadyValidated)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	for _, ev := range []inventory.DocumentEvent{inventory.EventEdit, inventory.EventCancel, inventory.EventConfirm} {
		_, err = inventory.NextStatus(entity.StatusDone, ev)
		assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
	}
	for _, ev := range []inventory.DocumentEvent{inventory.EventValidate, inventory.EventCancel, inventory.EventEdit} {
		_, err = inventory.NextStatus(entity.StatusCanceled, ev)
		assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
}

func TestNextStatus_EdicionSoloEnBorrador(t *testing.T) {
	_, err := inventory.NextStatus(entity.StatusWaiting, inventory.EventEdit)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = inventory.NextStatus(entity.StatusReady, inventory.EventConfirm)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestMarkDone_FijaValidatedAtYCantidadAtendida(t *testing.T) {
	doc := draftDelivery()
	now := time.Now().UTC()

	require.NoError(t, inventory.MarkDone(doc, now))
	assert.Equal(t, entity.StatusDone, doc.Status)
	require.NotNil(t, doc.ValidatedAt)
	assert.Equal(t, now, *doc.ValidatedAt)
	for _, it := range doc.Items {
		require.NotNil(t, it.FulfilledQuantity)
		assert.True(t, it.FulfilledQuantity.Equal(it.Quantity))
	}

	// Segunda validación: error y sin cambios.
	err := inventory.MarkDone(doc, now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrAlreadyValidated)
	assert.Equal(t, now, *doc.ValidatedAt)
}

func TestCancel_DosVecesDevuelveTransicionInvalida(t *testing.T) {
	doc := draftDelivery()
	require.NoError(t, inventory.Confirm(doc, time.Now()))
	require.NoError(t, inventory.MarkReady(doc, time.Now()))
	require.NoError(t, inventory.Cancel(doc, time.Now()))
	assert.Equal(t, entity.StatusCanceled, doc.Status)
	assert.Nil(t, doc.ValidatedAt)

	assert.ErrorIs(t, inventory.Cancel(doc, time.Now()), domain.ErrInvalidTransition)
	assert.ErrorIs(t, inventory.CheckEditable(doc), domain.ErrAlreadyTerminal)
}
