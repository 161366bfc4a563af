package entity

import "time"

// Tipos de bodega.
const (
	WarehouseTypeMain       = "main"
	WarehouseTypeProduction = "production"
	WarehouseTypeStorage    = "storage"
	WarehouseTypeRack       = "rack"
)

// Warehouse representa una bodega donde se almacena inventario (datos maestros).
type Warehouse struct {
	ID        string
	Code      string // único
	Name      string
	Location  string
	Type      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
