package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

// SlipLine línea del documento enriquecida con los datos del producto.
type SlipLine struct {
	entity.LineItem
	SKU         string
	ProductName string
	Unit        string
}

// SlipGenerator genera la representación PDF de un documento de movimiento.
type SlipGenerator interface {
	GenerateMovementSlip(ctx context.Context, doc *entity.MovementDocument, lines []SlipLine, entries []*entity.LedgerEntry) ([]byte, error)
}

// SlipUseCase arma el comprobante imprimible de un documento con sus entradas del libro.
type SlipUseCase struct {
	docRepo     repository.DocumentRepository
	ledgerRepo  repository.LedgerRepository
	productRepo repository.ProductRepository
	generator   SlipGenerator
}

// NewSlipUseCase construye el caso de uso inyectando todas sus dependencias.
func NewSlipUseCase(
	docRepo repository.DocumentRepository,
	ledgerRepo repository.LedgerRepository,
	productRepo repository.ProductRepository,
	generator SlipGenerator,
) *SlipUseCase {
	return &SlipUseCase{docRepo: docRepo, ledgerRepo: ledgerRepo, productRepo: productRepo, generator: generator}
}

// DownloadSlip devuelve los bytes del PDF y el nombre de archivo sugerido.
// Los documentos en cualquier estado se pueden imprimir; solo los validados traen entradas del libro.
func (uc *SlipUseCase) DownloadSlip(ctx context.Context, documentID string) ([]byte, string, error) {
	doc, err := uc.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, "", err
	}

	lines := make([]SlipLine, 0, len(doc.Items))
	for _, it := range doc.Items {
		line := SlipLine{LineItem: it, ProductName: "Producto " + it.ProductID}
		if p, pErr := uc.productRepo.GetByID(ctx, it.ProductID); pErr == nil && p != nil {
			line.SKU, line.ProductName, line.Unit = p.SKU, p.Name, p.UnitOfMeasure
		}
		lines = append(lines, line)
	}

	var entries []*entity.LedgerEntry
	if doc.Status == entity.StatusDone {
		entries, err = uc.ledgerRepo.List(ctx, entity.LedgerFilter{DocumentID: doc.ID, Limit: 2 * len(doc.Items)})
		if err != nil {
			return nil, "", fmt.Errorf("pdf: obtener libro: %w", err)
		}
	}

	pdfBytes, err := uc.generator.GenerateMovementSlip(ctx, doc, lines, entries)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, strings.ToLower(doc.Number) + ".pdf", nil
}
