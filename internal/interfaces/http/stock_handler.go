package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockmaster/internal/application/dto"
	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// StockHandler lecturas de stock, libro y consistencia.
type StockHandler struct {
	queries *appinventory.StockQueryUseCase
	checker *appinventory.ConsistencyChecker
}

// NewStockHandler construye el handler.
func NewStockHandler(queries *appinventory.StockQueryUseCase, checker *appinventory.ConsistencyChecker) *StockHandler {
	return &StockHandler{queries: queries, checker: checker}
}

// ProductStock godoc
// @Summary      Stock de un producto por bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *StockHandler) ProductStock(c *fiber.Ctx) error {
	stock, err := h.queries.ProductStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductStockResponse(stock))
}

// Ledger godoc
// @Summary      Libro de stock
// @Description  Entradas en orden de inserción, filtradas por producto, bodega o documento.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "producto"
// @Param        warehouse_id  query  string  false  "bodega"
// @Param        document_id   query  string  false  "documento"
// @Success      200  {array}  dto.LedgerEntryResponse
// @Router       /api/ledger [get]
func (h *StockHandler) Ledger(c *fiber.Ctx) error {
	var q dto.LedgerQuery
	if ok, err := bindQuery(c, &q); !ok {
		return err
	}
	entries, err := h.queries.Ledger(c.UserContext(), entity.LedgerFilter{
		ProductID:   q.ProductID,
		WarehouseID: q.WarehouseID,
		DocumentID:  q.DocumentID,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toLedgerList(entries))
}

// Consistency godoc
// @Summary      Verificación de consistencia
// @Description  Totales contra suma por bodega, encadenamiento del libro y libro contra stock. 200 si no hay violaciones, 409 si las hay.
// @Tags         health
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  inventory.ConsistencyReport
// @Failure      409  {object}  inventory.ConsistencyReport
// @Router       /api/health/consistency [get]
func (h *StockHandler) Consistency(c *fiber.Ctx) error {
	report, err := h.checker.VerifyAll(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	if !report.OK() {
		return c.Status(fiber.StatusConflict).JSON(report)
	}
	return c.JSON(report)
}
