package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento registrado en el libro de stock.
type MovementType string

// Tipos de movimiento del libro de stock.
const (
	MovementReceipt     MovementType = "receipt"
	MovementDelivery    MovementType = "delivery"
	MovementTransferIn  MovementType = "transfer_in"
	MovementTransferOut MovementType = "transfer_out"
	MovementAdjustment  MovementType = "adjustment"
)

// IsValid indica si el tipo de movimiento es conocido.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementReceipt, MovementDelivery, MovementTransferIn, MovementTransferOut, MovementAdjustment:
		return true
	}
	return false
}

// LedgerEntry registro inmutable de un cambio en una celda de stock. Nunca se actualiza ni se borra.
// Invariante: QuantityAfter == QuantityBefore + QuantityChange.
// Sequence es el orden de inserción; desempata entradas con el mismo CreatedAt.
type LedgerEntry struct {
	ID             string
	Sequence       int64
	ProductID      string
	WarehouseID    string
	MovementType   MovementType
	DocumentNumber string
	DocumentID     string
	QuantityBefore decimal.Decimal
	QuantityChange decimal.Decimal
	QuantityAfter  decimal.Decimal
	Notes          string
	Actor          string
	CreatedAt      time.Time
}

// Cell devuelve la celda afectada por la entrada.
func (e *LedgerEntry) Cell() StockCell {
	return StockCell{ProductID: e.ProductID, WarehouseID: e.WarehouseID}
}

// DocumentRef referencia al documento que autoriza un movimiento.
type DocumentRef struct {
	ID     string
	Number string
}

// LedgerFilter filtros para consultar el libro. Campos vacíos no filtran.
type LedgerFilter struct {
	ProductID   string
	WarehouseID string
	DocumentID  string
	Limit       int
	Offset      int
}
