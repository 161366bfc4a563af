package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockmaster/internal/application/dto"
	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// AdjustmentHandler ajustes por conteo físico (protegido).
type AdjustmentHandler struct {
	adjs *appinventory.AdjustmentUseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(adjs *appinventory.AdjustmentUseCase) *AdjustmentHandler {
	return &AdjustmentHandler{adjs: adjs}
}

// Create godoc
// @Summary      Registrar ajuste por conteo
// @Description  Fija la celda en counted_quantity; el libro registra la diferencia.
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "warehouse_id, product_id, counted_quantity, reason"
// @Success      201   {object}  dto.CreateAdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	adj, entry, err := h.adjs.Create(c.UserContext(), appinventory.CreateAdjustmentInput{
		WarehouseID:     in.WarehouseID,
		ProductID:       in.ProductID,
		CountedQuantity: in.CountedQuantity,
		Reason:          entity.AdjustmentReason(in.Reason),
		Notes:           in.Notes,
		Actor:           GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateAdjustmentResponse{
		Adjustment: toAdjustmentResponse(adj),
		Entry:      toLedgerEntryResponse(entry),
	})
}

// List ajustes por bodega y producto.
// @Router /api/adjustments [get]
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	var q dto.AdjustmentListQuery
	if ok, err := bindQuery(c, &q); !ok {
		return err
	}
	list, err := h.adjs.List(c.UserContext(), entity.AdjustmentFilter{
		WarehouseID: q.WarehouseID,
		ProductID:   q.ProductID,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AdjustmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAdjustmentResponse(a))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) Get(c *fiber.Ctx) error {
	adj, err := h.adjs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAdjustmentResponse(adj))
}
