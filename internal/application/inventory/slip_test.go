package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

type recordingGenerator struct {
	doc     *entity.MovementDocument
	lines   []appinventory.SlipLine
	entries []*entity.LedgerEntry
}

func (g *recordingGenerator) GenerateMovementSlip(_ context.Context, doc *entity.MovementDocument, lines []appinventory.SlipLine, entries []*entity.LedgerEntry) ([]byte, error) {
	g.doc, g.lines, g.entries = doc, lines, entries
	return []byte("%PDF-fake"), nil
}

func TestDownloadSlip_IncluyeProductosYLibro(t *testing.T) {
	f := newFixture(t)
	doc := f.receive(t, "P", "W", 7)
	gen := &recordingGenerator{}
	uc := appinventory.NewSlipUseCase(f.store.Documents(), f.store.Ledger(), f.store.Products(), gen)

	pdf, name, err := uc.DownloadSlip(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "rcp000001.pdf", name)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
	require.Len(t, gen.lines, 1)
	assert.Equal(t, "SKU-P", gen.lines[0].SKU)
	assert.Equal(t, "Producto P", gen.lines[0].ProductName)
	require.Len(t, gen.entries, 1)
	assert.Equal(t, doc.ID, gen.entries[0].DocumentID)
}

func TestDownloadSlip_BorradorSinLibro(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentDelivery, WarehouseID: "W",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(2)}},
	})
	gen := &recordingGenerator{}
	uc := appinventory.NewSlipUseCase(f.store.Documents(), f.store.Ledger(), f.store.Products(), gen)

	_, _, err := uc.DownloadSlip(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, gen.entries)

	_, _, err = uc.DownloadSlip(f.ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
