package inventory

import (
	"fmt"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// DocumentEffects traduce un documento en los deltas que su validación aplica, en orden:
//   - recepción: +q en la bodega
//   - entrega: -q en la bodega
//   - traslado: -q en origen y luego +q en destino, por línea
func DocumentEffects(doc *entity.MovementDocument) ([]StockDelta, error) {
	deltas := make([]StockDelta, 0, 2*len(doc.Items))
	for _, it := range doc.Items {
		switch doc.Type {
		case entity.DocumentReceipt:
			deltas = append(deltas, StockDelta{
				Cell:         entity.StockCell{ProductID: it.ProductID, WarehouseID: doc.WarehouseID},
				Change:       it.Quantity,
				MovementType: entity.MovementReceipt,
				Notes:        "Recepción de " + doc.Partner,
			})
		case entity.DocumentDelivery:
			deltas = append(deltas, StockDelta{
				Cell:         entity.StockCell{ProductID: it.ProductID, WarehouseID: doc.WarehouseID},
				Change:       it.Quantity.Neg(),
				MovementType: entity.MovementDelivery,
				Notes:        "Entrega a " + doc.Partner,
			})
		case entity.DocumentTransfer:
			deltas = append(deltas,
				StockDelta{
					Cell:         entity.StockCell{ProductID: it.ProductID, WarehouseID: doc.FromWarehouseID},
					Change:       it.Quantity.Neg(),
					MovementType: entity.MovementTransferOut,
					Notes:        "Traslado a bodega " + doc.ToWarehouseID,
				},
				StockDelta{
					Cell:         entity.StockCell{ProductID: it.ProductID, WarehouseID: doc.ToWarehouseID},
					Change:       it.Quantity,
					MovementType: entity.MovementTransferIn,
					Notes:        "Traslado desde bodega " + doc.FromWarehouseID,
				},
			)
		default:
			return nil, fmt.Errorf("%w: tipo de documento %q sin efectos de stock", domain.ErrInvalidInput, doc.Type)
		}
	}
	return deltas, nil
}

// AdjustmentNotes nota del libro para un ajuste.
func AdjustmentNotes(reason entity.AdjustmentReason, notes string) string {
	return fmt.Sprintf("Ajuste: %s - %s", reason, notes)
}

// DeltaCells celdas tocadas por los deltas, sin duplicados y en orden de bloqueo.
func DeltaCells(deltas []StockDelta) []entity.StockCell {
	cells := make([]entity.StockCell, 0, len(deltas))
	for _, d := range deltas {
		cells = append(cells, d.Cell)
	}
	return entity.SortCells(cells)
}
