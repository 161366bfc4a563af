package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType tipo de documento de movimiento.
type DocumentType string

// Tipos de documento.
const (
	DocumentReceipt    DocumentType = "receipt"
	DocumentDelivery   DocumentType = "delivery"
	DocumentTransfer   DocumentType = "transfer"
	DocumentAdjustment DocumentType = "adjustment"
)

// IsValid indica si el tipo es conocido.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentReceipt, DocumentDelivery, DocumentTransfer, DocumentAdjustment:
		return true
	}
	return false
}

// DocumentStatus estado del ciclo de vida de un documento.
type DocumentStatus string

// Estados del documento. done y canceled son terminales.
const (
	StatusDraft    DocumentStatus = "draft"
	StatusWaiting  DocumentStatus = "waiting"
	StatusReady    DocumentStatus = "ready"
	StatusDone     DocumentStatus = "done"
	StatusCanceled DocumentStatus = "canceled"
)

// IsValid indica si el estado es conocido.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusWaiting, StatusReady, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal indica si el estado no admite más transiciones.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// LineItem línea de un documento. FulfilledQuantity solo se fija al validar.
type LineItem struct {
	ProductID         string
	Quantity          decimal.Decimal
	FulfilledQuantity *decimal.Decimal
}

// MovementDocument documento de recepción, entrega o traslado.
// Recepción y entrega usan WarehouseID; el traslado usa FromWarehouseID y ToWarehouseID (distintas).
// Partner es el proveedor (recepción) o el cliente (entrega).
type MovementDocument struct {
	ID              string
	Number          string
	Type            DocumentType
	Status          DocumentStatus
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	Partner         string
	Items           []LineItem
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ValidatedAt     *time.Time
}

// Clone copia profunda del documento.
func (d *MovementDocument) Clone() *MovementDocument {
	cp := *d
	cp.Items = make([]LineItem, len(d.Items))
	for i, it := range d.Items {
		cp.Items[i] = it
		if it.FulfilledQuantity != nil {
			q := *it.FulfilledQuantity
			cp.Items[i].FulfilledQuantity = &q
		}
	}
	if d.ValidatedAt != nil {
		t := *d.ValidatedAt
		cp.ValidatedAt = &t
	}
	return &cp
}

// Touches indica si el documento afecta la bodega (origen o destino en traslados).
func (d *MovementDocument) Touches(warehouseID string) bool {
	return d.WarehouseID == warehouseID || d.FromWarehouseID == warehouseID || d.ToWarehouseID == warehouseID
}

// DocumentFilter filtros de listado. Campos vacíos no filtran.
type DocumentFilter struct {
	Type        DocumentType
	Status      DocumentStatus
	WarehouseID string
	Limit       int
	Offset      int
}
