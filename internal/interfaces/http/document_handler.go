package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockmaster/internal/application/dto"
	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// DocumentHandler recepciones, entregas y traslados (protegido).
type DocumentHandler struct {
	docs  *appinventory.DocumentUseCase
	slips *appinventory.SlipUseCase
}

// NewDocumentHandler construye el handler. slips puede ser nil (sin impresión).
func NewDocumentHandler(docs *appinventory.DocumentUseCase, slips *appinventory.SlipUseCase) *DocumentHandler {
	return &DocumentHandler{docs: docs, slips: slips}
}

// CreateReceipt godoc
// @Summary      Crear recepción en borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReceiptRequest  true  "warehouse_id, supplier, items"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *DocumentHandler) CreateReceipt(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	return h.create(c, appinventory.CreateDocumentInput{
		Type:        entity.DocumentReceipt,
		WarehouseID: in.WarehouseID,
		Partner:     in.Supplier,
		Notes:       in.Notes,
		Items:       toLineInputs(in.Items),
	})
}

// CreateDelivery godoc
// @Summary      Crear entrega en borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDeliveryRequest  true  "warehouse_id, customer, items"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/deliveries [post]
func (h *DocumentHandler) CreateDelivery(c *fiber.Ctx) error {
	var in dto.CreateDeliveryRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	return h.create(c, appinventory.CreateDocumentInput{
		Type:        entity.DocumentDelivery,
		WarehouseID: in.WarehouseID,
		Partner:     in.Customer,
		Notes:       in.Notes,
		Items:       toLineInputs(in.Items),
	})
}

// CreateTransfer godoc
// @Summary      Crear traslado en borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "from_warehouse_id, to_warehouse_id, items"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *DocumentHandler) CreateTransfer(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	return h.create(c, appinventory.CreateDocumentInput{
		Type:            entity.DocumentTransfer,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Notes:           in.Notes,
		Items:           toLineInputs(in.Items),
	})
}

func (h *DocumentHandler) create(c *fiber.Ctx, in appinventory.CreateDocumentInput) error {
	in.Actor = GetUserID(c)
	doc, err := h.docs.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(doc))
}

// List devuelve el handler de listado para un tipo de documento.
// @Param  status        query  string  false  "draft|waiting|ready|done|canceled"
// @Param  warehouse_id  query  string  false  "bodega (en traslados, origen o destino)"
func (h *DocumentHandler) List(docType entity.DocumentType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q dto.DocumentListQuery
		if ok, err := bindQuery(c, &q); !ok {
			return err
		}
		docs, err := h.docs.List(c.UserContext(), entity.DocumentFilter{
			Type:        docType,
			Status:      entity.DocumentStatus(q.Status),
			WarehouseID: q.WarehouseID,
			Limit:       q.Limit,
			Offset:      q.Offset,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(toDocumentList(docs))
	}
}

// Get godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	doc, err := h.docs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// Edit godoc
// @Summary      Editar documento en borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del documento"
// @Param        body  body  dto.EditDocumentRequest  true  "contenido completo del borrador"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [put]
func (h *DocumentHandler) Edit(c *fiber.Ctx) error {
	var in dto.EditDocumentRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	doc, err := h.docs.Edit(c.UserContext(), c.Params("id"), appinventory.EditDocumentInput{
		WarehouseID:     in.WarehouseID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Partner:         in.Partner,
		Notes:           in.Notes,
		Items:           toLineInputs(in.Items),
		Actor:           GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// Confirm draft -> waiting.
// @Router /api/documents/{id}/confirm [post]
func (h *DocumentHandler) Confirm(c *fiber.Ctx) error {
	doc, err := h.docs.Confirm(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// MarkReady waiting -> ready.
// @Router /api/documents/{id}/ready [post]
func (h *DocumentHandler) MarkReady(c *fiber.Ctx) error {
	doc, err := h.docs.MarkReady(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// Validate godoc
// @Summary      Validar documento (aplica el stock)
// @Description  Aplica todas las líneas en una sola transacción. Stock insuficiente responde 409 con la celda.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.ValidateDocumentResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/validate [post]
func (h *DocumentHandler) Validate(c *fiber.Ctx) error {
	doc, entries, err := h.docs.Validate(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ValidateDocumentResponse{
		Document: toDocumentResponse(doc),
		Entries:  toLedgerList(entries),
	})
}

// Cancel cancela sin tocar el stock.
// @Router /api/documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *fiber.Ctx) error {
	doc, err := h.docs.Cancel(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// DownloadPDF godoc
// @Summary      Comprobante PDF del documento
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *fiber.Ctx) error {
	if h.slips == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "PDF_DISABLED", Message: "impresión no disponible"})
	}
	data, filename, err := h.slips.DownloadSlip(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
