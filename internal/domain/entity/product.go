package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo (datos maestros gestionados fuera del núcleo).
// El stock por bodega vive en ProductStock y solo lo modifica el motor de inventario.
type Product struct {
	ID            string
	SKU           string // único
	Name          string
	Category      string
	UnitOfMeasure string
	MinStock      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
