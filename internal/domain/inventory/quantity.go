package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// CheckLineQuantity exige una cantidad entera y positiva.
func CheckLineQuantity(q decimal.Decimal) error {
	if !q.IsInteger() {
		return fmt.Errorf("%w: %s no es entera", domain.ErrInvalidQuantity, q.String())
	}
	if !q.IsPositive() {
		return fmt.Errorf("%w: %s debe ser mayor que cero", domain.ErrInvalidQuantity, q.String())
	}
	return nil
}

// CheckCountedQuantity exige una cantidad entera y no negativa (conteo físico).
func CheckCountedQuantity(q decimal.Decimal) error {
	if !q.IsInteger() {
		return fmt.Errorf("%w: %s no es entera", domain.ErrInvalidQuantity, q.String())
	}
	if q.IsNegative() {
		return fmt.Errorf("%w: el conteo %s es negativo", domain.ErrInvalidQuantity, q.String())
	}
	return nil
}

// CheckDocument valida la forma de un documento de movimiento antes de crearlo o editarlo.
func CheckDocument(doc *entity.MovementDocument) error {
	switch doc.Type {
	case entity.DocumentReceipt, entity.DocumentDelivery:
		if doc.WarehouseID == "" {
			return fmt.Errorf("%w: bodega requerida", domain.ErrInvalidInput)
		}
	case entity.DocumentTransfer:
		if doc.FromWarehouseID == "" || doc.ToWarehouseID == "" {
			return fmt.Errorf("%w: bodegas de origen y destino requeridas", domain.ErrInvalidInput)
		}
		if doc.FromWarehouseID == doc.ToWarehouseID {
			return fmt.Errorf("%w: origen y destino deben ser distintos", domain.ErrInvalidQuantity)
		}
	default:
		return fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, doc.Type)
	}
	if len(doc.Items) == 0 {
		return fmt.Errorf("%w: el documento no tiene líneas", domain.ErrInvalidInput)
	}
	for i, it := range doc.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i+1)
		}
		if err := CheckLineQuantity(it.Quantity); err != nil {
			return fmt.Errorf("línea %d (%s): %w", i+1, it.ProductID, err)
		}
	}
	return nil
}
