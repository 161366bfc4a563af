package http

import (
	"github.com/gofiber/fiber/v2"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents   *appinventory.DocumentUseCase
	Adjustments *appinventory.AdjustmentUseCase
	Queries     *appinventory.StockQueryUseCase
	Checker     *appinventory.ConsistencyChecker
	Slips       *appinventory.SlipUseCase
	AppName     string
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Health (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	writers := RequireWriter()

	docHandler := NewDocumentHandler(deps.Documents, deps.Slips)
	for path, docType := range map[string]entity.DocumentType{
		"/receipts":   entity.DocumentReceipt,
		"/deliveries": entity.DocumentDelivery,
		"/transfers":  entity.DocumentTransfer,
	} {
		protected.Get(path, docHandler.List(docType))
	}
	protected.Post("/receipts", writers, docHandler.CreateReceipt)
	protected.Post("/deliveries", writers, docHandler.CreateDelivery)
	protected.Post("/transfers", writers, docHandler.CreateTransfer)

	documents := protected.Group("/documents")
	documents.Get("/:id", docHandler.Get)
	documents.Get("/:id/pdf", docHandler.DownloadPDF)
	documents.Put("/:id", writers, docHandler.Edit)
	documents.Post("/:id/confirm", writers, docHandler.Confirm)
	documents.Post("/:id/ready", writers, docHandler.MarkReady)
	documents.Post("/:id/validate", writers, docHandler.Validate)
	documents.Post("/:id/cancel", writers, docHandler.Cancel)

	// Ajustes por conteo
	adjustments := protected.Group("/adjustments")
	adjHandler := NewAdjustmentHandler(deps.Adjustments)
	adjustments.Post("/", writers, adjHandler.Create)
	adjustments.Get("/", adjHandler.List)
	adjustments.Get("/:id", adjHandler.Get)

	// Stock y libro (solo lectura)
	stockHandler := NewStockHandler(deps.Queries, deps.Checker)
	protected.Get("/ledger", stockHandler.Ledger)
	protected.Get("/products/:id/stock", stockHandler.ProductStock)
	protected.Get("/health/consistency", RequireAuditor(), stockHandler.Consistency)
}
