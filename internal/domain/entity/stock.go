package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StockCell identifica la cantidad de un producto en una bodega.
type StockCell struct {
	ProductID   string
	WarehouseID string
}

// Less ordena celdas por producto y luego por bodega (orden de bloqueo estable).
func (c StockCell) Less(o StockCell) bool {
	if c.ProductID != o.ProductID {
		return c.ProductID < o.ProductID
	}
	return c.WarehouseID < o.WarehouseID
}

// SortCells devuelve las celdas sin duplicados y en orden de bloqueo.
func SortCells(cells []StockCell) []StockCell {
	seen := make(map[StockCell]struct{}, len(cells))
	out := make([]StockCell, 0, len(cells))
	for _, c := range cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ProductStock es el subconjunto de datos maestros del producto que solo muta el motor de inventario.
// Invariante: TotalStock == suma de PerWarehouse fuera de una mutación.
type ProductStock struct {
	ProductID    string
	PerWarehouse map[string]decimal.Decimal
	TotalStock   decimal.Decimal
	UpdatedAt    time.Time
}

// Quantity devuelve la cantidad en la bodega (0 si no hay registro).
func (p *ProductStock) Quantity(warehouseID string) decimal.Decimal {
	if q, ok := p.PerWarehouse[warehouseID]; ok {
		return q
	}
	return decimal.Zero
}

// SumPerWarehouse recalcula el total a partir de las bodegas.
func (p *ProductStock) SumPerWarehouse() decimal.Decimal {
	sum := decimal.Zero
	for _, q := range p.PerWarehouse {
		sum = sum.Add(q)
	}
	return sum
}

// Clone copia profunda (el mapa no se comparte).
func (p *ProductStock) Clone() *ProductStock {
	cp := *p
	cp.PerWarehouse = make(map[string]decimal.Decimal, len(p.PerWarehouse))
	for k, v := range p.PerWarehouse {
		cp.PerWarehouse[k] = v
	}
	return &cp
}

// CellChange es el cambio neto de una celda dentro de una transacción (antes/después).
type CellChange struct {
	Cell   StockCell
	Before decimal.Decimal
	After  decimal.Decimal
}

// Delta devuelve After - Before.
func (c CellChange) Delta() decimal.Decimal {
	return c.After.Sub(c.Before)
}
