package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentReason motivo de un ajuste por conteo.
type AdjustmentReason string

// Motivos de ajuste.
const (
	ReasonDamage     AdjustmentReason = "damage"
	ReasonTheft      AdjustmentReason = "theft"
	ReasonCountError AdjustmentReason = "count_error"
	ReasonOther      AdjustmentReason = "other"
)

// IsValid indica si el motivo es conocido.
func (r AdjustmentReason) IsValid() bool {
	switch r {
	case ReasonDamage, ReasonTheft, ReasonCountError, ReasonOther:
		return true
	}
	return false
}

// Adjustment ajuste de inventario por conteo físico; se crea y aplica en un solo paso y es inmutable.
// Difference = CountedQuantity - RecordedQuantity.
type Adjustment struct {
	ID               string
	Number           string
	WarehouseID      string
	ProductID        string
	RecordedQuantity decimal.Decimal
	CountedQuantity  decimal.Decimal
	Difference       decimal.Decimal
	Reason           AdjustmentReason
	Notes            string
	CreatedBy        string
	CreatedAt        time.Time
}

// AdjustmentFilter filtros de listado de ajustes.
type AdjustmentFilter struct {
	WarehouseID string
	ProductID   string
	Limit       int
	Offset      int
}
