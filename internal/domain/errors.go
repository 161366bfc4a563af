package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidQuantity     = errors.New("cantidad inválida")
	ErrInvalidTransition   = errors.New("transición de estado inválida")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrDuplicateIdentifier = errors.New("identificador de documento duplicado")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia")
	ErrUnauthorized        = errors.New("no autorizado")
)

// Variantes de ErrInvalidTransition: errors.Is(err, ErrInvalidTransition) sigue siendo cierto.
var (
	ErrAlreadyValidated = fmt.Errorf("%w: el documento ya fue validado", ErrInvalidTransition)
	ErrAlreadyTerminal  = fmt.Errorf("%w: el documento está en estado terminal", ErrInvalidTransition)
)

// InsufficientStockError identifica la celda (producto, bodega) que quedaría negativa.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: producto %s en bodega %s (disponible %s, solicitado %s)",
		e.ProductID, e.WarehouseID, e.Available.String(), e.Requested.String())
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
