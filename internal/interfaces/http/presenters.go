package http

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster/internal/application/dto"
	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

func toLineInputs(items []dto.LineItemRequest) []appinventory.LineInput {
	out := make([]appinventory.LineInput, 0, len(items))
	for _, it := range items {
		out = append(out, appinventory.LineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func toDocumentResponse(d *entity.MovementDocument) dto.DocumentResponse {
	resp := dto.DocumentResponse{
		ID:              d.ID,
		Number:          d.Number,
		Type:            string(d.Type),
		Status:          string(d.Status),
		WarehouseID:     d.WarehouseID,
		FromWarehouseID: d.FromWarehouseID,
		ToWarehouseID:   d.ToWarehouseID,
		Notes:           d.Notes,
		Items:           make([]dto.LineItemResponse, 0, len(d.Items)),
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ValidatedAt:     d.ValidatedAt,
	}
	switch d.Type {
	case entity.DocumentReceipt:
		resp.Supplier = d.Partner
	case entity.DocumentDelivery:
		resp.Customer = d.Partner
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, dto.LineItemResponse{
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			FulfilledQuantity: it.FulfilledQuantity,
		})
	}
	return resp
}

func toDocumentList(docs []*entity.MovementDocument) []dto.DocumentResponse {
	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out
}

func toLedgerEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:             e.ID,
		Sequence:       e.Sequence,
		ProductID:      e.ProductID,
		WarehouseID:    e.WarehouseID,
		MovementType:   string(e.MovementType),
		DocumentID:     e.DocumentID,
		DocumentNumber: e.DocumentNumber,
		QuantityBefore: e.QuantityBefore,
		QuantityChange: e.QuantityChange,
		QuantityAfter:  e.QuantityAfter,
		Notes:          e.Notes,
		Actor:          e.Actor,
		CreatedAt:      e.CreatedAt,
	}
}

func toLedgerList(entries []*entity.LedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLedgerEntryResponse(e))
	}
	return out
}

func toAdjustmentResponse(a *entity.Adjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:               a.ID,
		Number:           a.Number,
		WarehouseID:      a.WarehouseID,
		ProductID:        a.ProductID,
		RecordedQuantity: a.RecordedQuantity,
		CountedQuantity:  a.CountedQuantity,
		Difference:       a.Difference,
		Reason:           string(a.Reason),
		Notes:            a.Notes,
		CreatedBy:        a.CreatedBy,
		CreatedAt:        a.CreatedAt,
	}
}

func toProductStockResponse(s *entity.ProductStock) dto.ProductStockResponse {
	per := make(map[string]decimal.Decimal, len(s.PerWarehouse))
	for wh, q := range s.PerWarehouse {
		per[wh] = q
	}
	return dto.ProductStockResponse{
		ProductID:    s.ProductID,
		PerWarehouse: per,
		TotalStock:   s.TotalStock,
		UpdatedAt:    s.UpdatedAt,
	}
}
