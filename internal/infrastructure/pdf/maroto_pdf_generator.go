// Package pdf genera el comprobante imprimible de un documento de movimiento.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de documento + estado │ N° + fecha             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  BODEGAS: bodega u origen → destino │ Proveedor / Cliente   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Solicitado | Atendido | Unidad      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  LIBRO: Bodega | Movimiento | Antes | Cambio | Después       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el número + notas + actor                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var docTitles = map[entity.DocumentType]string{
	entity.DocumentReceipt:  "RECEPCIÓN DE MERCANCÍA",
	entity.DocumentDelivery: "ENTREGA DE MERCANCÍA",
	entity.DocumentTransfer: "TRASLADO ENTRE BODEGAS",
}

var movementLabels = map[entity.MovementType]string{
	entity.MovementReceipt:     "Recepción",
	entity.MovementDelivery:    "Entrega",
	entity.MovementTransferIn:  "Traslado (entrada)",
	entity.MovementTransferOut: "Traslado (salida)",
	entity.MovementAdjustment:  "Ajuste",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.SlipGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	printer *message.Printer
}

// NewMarotoPDFGenerator construye el generador. Las cantidades se formatean con separadores de es-CO.
func NewMarotoPDFGenerator() *MarotoPDFGenerator {
	return &MarotoPDFGenerator{printer: message.NewPrinter(language.MustParse("es-CO"))}
}

var _ appinventory.SlipGenerator = (*MarotoPDFGenerator)(nil)

// GenerateMovementSlip genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateMovementSlip(
	_ context.Context,
	doc *entity.MovementDocument,
	lines []appinventory.SlipLine,
	entries []*entity.LedgerEntry,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(docTitles[doc.Type]+" "+doc.Number, true).
		WithAuthor(doc.CreatedBy, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(locationRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(itemsHeaderRow())
	m.AddRows(g.itemRows(lines)...)

	if len(entries) > 0 {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(ledgerHeaderRow())
		m.AddRows(g.ledgerRows(entries)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tipo y estado (izq), número y fecha (der).
func headerRow(doc *entity.MovementDocument) core.Row {
	fecha := doc.CreatedAt.Format("02/01/2006 15:04")
	if doc.ValidatedAt != nil {
		fecha = "Validado: " + doc.ValidatedAt.Format("02/01/2006 15:04")
	}
	statusColor := colorGray
	if doc.Status == entity.StatusCanceled {
		statusColor = colorRed
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(docTitles[doc.Type], props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+string(doc.Status), props.Text{
				Size: 9, Top: 9, Color: statusColor,
			}),
		),
		col.New(5).Add(
			text.New(doc.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 3,
			}),
			text.New(fecha, props.Text{
				Size: 8, Align: align.Right, Top: 11, Color: colorGray,
			}),
		),
	)
}

// locationRow: bodegas afectadas y contraparte.
func locationRow(doc *entity.MovementDocument) core.Row {
	where := "Bodega: " + doc.WarehouseID
	if doc.Type == entity.DocumentTransfer {
		where = fmt.Sprintf("Origen: %s   →   Destino: %s", doc.FromWarehouseID, doc.ToWarehouseID)
	}
	partnerLabel := "Proveedor"
	if doc.Type == entity.DocumentDelivery {
		partnerLabel = "Cliente"
	}
	cols := []core.Col{
		col.New(7).Add(
			text.New("UBICACIÓN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(where, props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	}
	if doc.Type != entity.DocumentTransfer {
		cols = append(cols, col.New(5).Add(
			text.New(partnerLabel, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1, Align: align.Right}),
			text.New(nonEmpty(doc.Partner, "-"), props.Text{Size: 8, Top: 6, Align: align.Right}),
		))
	}
	return row.New(12).Add(cols...)
}

func headerCol(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
	}))
}

func itemsHeaderRow() core.Row {
	return row.New(8).Add(
		headerCol("SKU", 2, align.Left),
		headerCol("Producto", 5, align.Left),
		headerCol("Solicitado", 2, align.Right),
		headerCol("Atendido", 2, align.Right),
		headerCol("Und.", 1, align.Center),
	)
}

// itemRows: una fila por línea del documento.
func (g *MarotoPDFGenerator) itemRows(lines []appinventory.SlipLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		fulfilled := "-"
		if l.FulfilledQuantity != nil {
			fulfilled = g.qty(*l.FulfilledQuantity)
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(nonEmpty(l.SKU, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(5).Add(text.New(l.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.qty(l.Quantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(fulfilled, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(nonEmpty(l.Unit, "-"), props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return result
}

func ledgerHeaderRow() core.Row {
	return row.New(8).Add(
		headerCol("Bodega", 3, align.Left),
		headerCol("Movimiento", 3, align.Left),
		headerCol("Antes", 2, align.Right),
		headerCol("Cambio", 2, align.Right),
		headerCol("Después", 2, align.Right),
	)
}

// ledgerRows: una fila por entrada del libro escrita al validar.
func (g *MarotoPDFGenerator) ledgerRows(entries []*entity.LedgerEntry) []core.Row {
	result := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		change := g.qty(e.QuantityChange)
		if e.QuantityChange.IsPositive() {
			change = "+" + change
		}
		result = append(result, row.New(6).Add(
			col.New(3).Add(text.New(e.WarehouseID, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(3).Add(text.New(movementLabels[e.MovementType], props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.qty(e.QuantityBefore), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(change, props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(g.qty(e.QuantityAfter), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// footerRow: QR con el número del documento, notas y responsable.
func footerRow(doc *entity.MovementDocument) core.Row {
	return row.New(32).Add(
		col.New(3).Add(code.NewQr(doc.Number, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Notas: "+nonEmpty(doc.Notes, "-"), props.Text{Size: 8, Top: 3, Left: 3, Color: colorGray}),
			text.New("Creado por: "+doc.CreatedBy, props.Text{Size: 8, Top: 12, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// qty formatea una cantidad entera con separador de miles local, p. ej. 12.500.
func (g *MarotoPDFGenerator) qty(q decimal.Decimal) string {
	return g.printer.Sprintf("%d", q.IntPart())
}
