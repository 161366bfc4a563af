package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRequest línea solicitada de un documento.
type LineItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateReceiptRequest body para POST /api/receipts.
type CreateReceiptRequest struct {
	WarehouseID string            `json:"warehouse_id" validate:"required"`
	Supplier    string            `json:"supplier" validate:"max=200"`
	Notes       string            `json:"notes" validate:"max=1000"`
	Items       []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateDeliveryRequest body para POST /api/deliveries.
type CreateDeliveryRequest struct {
	WarehouseID string            `json:"warehouse_id" validate:"required"`
	Customer    string            `json:"customer" validate:"max=200"`
	Notes       string            `json:"notes" validate:"max=1000"`
	Items       []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateTransferRequest body para POST /api/transfers. Origen y destino deben ser distintos.
type CreateTransferRequest struct {
	FromWarehouseID string            `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string            `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	Notes           string            `json:"notes" validate:"max=1000"`
	Items           []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// EditDocumentRequest body para PUT /api/documents/:id (solo draft).
// Partner es el proveedor o el cliente según el tipo.
type EditDocumentRequest struct {
	WarehouseID     string            `json:"warehouse_id,omitempty"`
	FromWarehouseID string            `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string            `json:"to_warehouse_id,omitempty"`
	Partner         string            `json:"partner" validate:"max=200"`
	Notes           string            `json:"notes" validate:"max=1000"`
	Items           []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateAdjustmentRequest body para POST /api/adjustments.
type CreateAdjustmentRequest struct {
	WarehouseID     string          `json:"warehouse_id" validate:"required"`
	ProductID       string          `json:"product_id" validate:"required"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Reason          string          `json:"reason" validate:"required,oneof=damage theft count_error other"`
	Notes           string          `json:"notes" validate:"max=1000"`
}

// DocumentListQuery filtros de GET /api/receipts|deliveries|transfers.
type DocumentListQuery struct {
	Status      string `query:"status" validate:"omitempty,oneof=draft waiting ready done canceled"`
	WarehouseID string `query:"warehouse_id"`
	Limit       int    `query:"limit" validate:"min=0,max=200"`
	Offset      int    `query:"offset" validate:"min=0"`
}

// AdjustmentListQuery filtros de GET /api/adjustments.
type AdjustmentListQuery struct {
	WarehouseID string `query:"warehouse_id"`
	ProductID   string `query:"product_id"`
	Limit       int    `query:"limit" validate:"min=0,max=200"`
	Offset      int    `query:"offset" validate:"min=0"`
}

// LedgerQuery filtros de GET /api/ledger.
type LedgerQuery struct {
	ProductID   string `query:"product_id"`
	WarehouseID string `query:"warehouse_id"`
	DocumentID  string `query:"document_id"`
	Limit       int    `query:"limit" validate:"min=0,max=500"`
	Offset      int    `query:"offset" validate:"min=0"`
}

// LineItemResponse línea de un documento. fulfilled_quantity solo aparece en documentos validados.
type LineItemResponse struct {
	ProductID         string           `json:"product_id"`
	Quantity          decimal.Decimal  `json:"quantity"`
	FulfilledQuantity *decimal.Decimal `json:"fulfilled_quantity,omitempty"`
}

// DocumentResponse documento de movimiento.
type DocumentResponse struct {
	ID              string             `json:"id"`
	Number          string             `json:"number"`
	Type            string             `json:"type"`
	Status          string             `json:"status"`
	WarehouseID     string             `json:"warehouse_id,omitempty"`
	FromWarehouseID string             `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string             `json:"to_warehouse_id,omitempty"`
	Supplier        string             `json:"supplier,omitempty"`
	Customer        string             `json:"customer,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Items           []LineItemResponse `json:"items"`
	CreatedBy       string             `json:"created_by"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	ValidatedAt     *time.Time         `json:"validated_at,omitempty"`
}

// ValidateDocumentResponse documento validado con las entradas del libro que generó.
type ValidateDocumentResponse struct {
	Document DocumentResponse      `json:"document"`
	Entries  []LedgerEntryResponse `json:"entries"`
}

// LedgerEntryResponse entrada del libro de stock.
type LedgerEntryResponse struct {
	ID             string          `json:"id"`
	Sequence       int64           `json:"sequence"`
	ProductID      string          `json:"product_id"`
	WarehouseID    string          `json:"warehouse_id"`
	MovementType   string          `json:"movement_type"`
	DocumentID     string          `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Notes          string          `json:"notes,omitempty"`
	Actor          string          `json:"actor"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AdjustmentResponse ajuste por conteo.
type AdjustmentResponse struct {
	ID               string          `json:"id"`
	Number           string          `json:"number"`
	WarehouseID      string          `json:"warehouse_id"`
	ProductID        string          `json:"product_id"`
	RecordedQuantity decimal.Decimal `json:"recorded_quantity"`
	CountedQuantity  decimal.Decimal `json:"counted_quantity"`
	Difference       decimal.Decimal `json:"difference"`
	Reason           string          `json:"reason"`
	Notes            string          `json:"notes,omitempty"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CreateAdjustmentResponse ajuste creado con su entrada del libro (cambio cero si el conteo coincide).
type CreateAdjustmentResponse struct {
	Adjustment AdjustmentResponse  `json:"adjustment"`
	Entry      LedgerEntryResponse `json:"entry"`
}

// ProductStockResponse stock de un producto por bodega y total.
type ProductStockResponse struct {
	ProductID    string                     `json:"product_id"`
	PerWarehouse map[string]decimal.Decimal `json:"per_warehouse"`
	TotalStock   decimal.Decimal            `json:"total_stock"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// InsufficientStockResponse cuerpo 409 cuando una celda quedaría negativa.
type InsufficientStockResponse struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Available   decimal.Decimal `json:"available"`
	Requested   decimal.Decimal `json:"requested"`
}
