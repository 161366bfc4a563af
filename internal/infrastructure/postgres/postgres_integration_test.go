package postgres_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/infrastructure/postgres"
	"github.com/jhoicas/stockmaster/pkg/config"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

const actor = "user-1"

func q(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// newPool levanta PostgreSQL en un contenedor y aplica el esquema. Se omite con -short o sin Docker.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stockmaster_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Docker no disponible: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(pool, logger.Nop()))
	return pool
}

type pgFixture struct {
	ctx     context.Context
	pool    *pgxpool.Pool
	store   *postgres.Store
	docs    *appinventory.DocumentUseCase
	adjs    *appinventory.AdjustmentUseCase
	checker *appinventory.ConsistencyChecker
}

func newFixture(t *testing.T) *pgFixture {
	t.Helper()
	pool := newPool(t)
	ctx := context.Background()
	store := postgres.NewStore(pool)
	for _, id := range []string{"P", "P2"} {
		require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: id, SKU: "SKU-" + id, Name: "Producto " + id}))
	}
	for _, id := range []string{"W", "W2"} {
		require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: id, Code: id, Name: "Bodega " + id, Active: true}))
	}
	runner := store.TxRunner()
	engine := appinventory.NewMutationEngine(runner, store.Products(), store.Warehouses(), appinventory.DefaultRetryPolicy, logger.Nop())
	numbering := appinventory.NewNumberingService(store.Sequences())
	return &pgFixture{
		ctx:     ctx,
		pool:    pool,
		store:   store,
		docs:    appinventory.NewDocumentUseCase(runner, store.Documents(), engine, numbering, nil, logger.Nop()),
		adjs:    appinventory.NewAdjustmentUseCase(runner, store.Adjustments(), engine, numbering, logger.Nop()),
		checker: appinventory.NewConsistencyChecker(runner, store.Stock(), store.Ledger(), logger.Nop()),
	}
}

func (f *pgFixture) validate(t *testing.T, in appinventory.CreateDocumentInput) (*entity.MovementDocument, error) {
	t.Helper()
	in.Actor = actor
	doc, err := f.docs.Create(f.ctx, in)
	require.NoError(t, err)
	_, _, err = f.docs.Validate(f.ctx, doc.ID, actor)
	return doc, err
}

func (f *pgFixture) quantity(t *testing.T, productID, warehouseID string) decimal.Decimal {
	t.Helper()
	stock, err := f.store.Stock().GetProductStock(f.ctx, productID)
	require.NoError(t, err)
	return stock.Quantity(warehouseID)
}

func TestPostgres_CicloCompletoDeDocumentos(t *testing.T) {
	f := newFixture(t)

	rcp, err := f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentReceipt, WarehouseID: "W", Partner: "Acme",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(50)}, {ProductID: "P2", Quantity: q(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "RCP000001", rcp.Number)

	_, err = f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentTransfer, FromWarehouseID: "W", ToWarehouseID: "W2",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(20)}},
	})
	require.NoError(t, err)

	_, err = f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentDelivery, WarehouseID: "W",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(30)}, {ProductID: "P2", Quantity: q(6)}},
	})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "P2", ise.ProductID)

	_, _, err = f.adjs.Create(f.ctx, appinventory.CreateAdjustmentInput{
		WarehouseID: "W2", ProductID: "P", CountedQuantity: q(18), Reason: entity.ReasonDamage, Actor: actor,
	})
	require.NoError(t, err)

	assert.True(t, f.quantity(t, "P", "W").Equal(q(30)))
	assert.True(t, f.quantity(t, "P", "W2").Equal(q(18)))
	assert.True(t, f.quantity(t, "P2", "W").Equal(q(5)))

	stored, err := f.docs.Get(f.ctx, rcp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, stored.Status)
	require.Len(t, stored.Items, 2)
	require.NotNil(t, stored.Items[0].FulfilledQuantity)

	report, err := f.checker.VerifyAll(f.ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), "violaciones: %+v", report.Issues)
}

func TestPostgres_EntregasConcurrentesNoDejanNegativo(t *testing.T) {
	f := newFixture(t)
	_, err := f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentReceipt, WarehouseID: "W",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(10)}},
	})
	require.NoError(t, err)

	var ok, insufficient atomic.Int32
	var g errgroup.Group
	for i := 0; i < 15; i++ {
		g.Go(func() error {
			doc, err := f.docs.Create(f.ctx, appinventory.CreateDocumentInput{
				Type: entity.DocumentDelivery, WarehouseID: "W", Actor: actor,
				Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(1)}},
			})
			if err != nil {
				return err
			}
			_, _, err = f.docs.Validate(f.ctx, doc.ID, actor)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(5), insufficient.Load())
	assert.True(t, f.quantity(t, "P", "W").IsZero())
}

func TestPostgres_NumeracionConcurrenteSinRepetidos(t *testing.T) {
	f := newFixture(t)
	seqs := f.store.Sequences()
	const n = 100
	results := make([]int64, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := seqs.Next(f.ctx, entity.DocumentTransfer)
			results[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())
	seen := map[int64]bool{}
	for _, v := range results {
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestPostgres_LibroSoloInsercion(t *testing.T) {
	f := newFixture(t)
	_, err := f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentReceipt, WarehouseID: "W",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(3)}},
	})
	require.NoError(t, err)

	_, err = f.pool.Exec(f.ctx, `UPDATE stock_ledger SET quantity_change = 99`)
	assert.Error(t, err)
	_, err = f.pool.Exec(f.ctx, `DELETE FROM stock_ledger`)
	assert.Error(t, err)

	entries, err := f.store.Ledger().ListByCell(f.ctx, entity.StockCell{ProductID: "P", WarehouseID: "W"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Positive(t, entries[0].Sequence)
}

func TestPostgres_NoEncontradoYDuplicado(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Documents().GetByID(f.ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.Stock().GetProductStock(f.ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now().UTC()
	doc := &entity.MovementDocument{ID: "d1", Number: "RCP000777", Type: entity.DocumentReceipt, Status: entity.StatusDraft,
		WarehouseID: "W", CreatedBy: actor, CreatedAt: now, UpdatedAt: now,
		Items: []entity.LineItem{{ProductID: "P", Quantity: q(1)}}}
	require.NoError(t, f.store.Documents().Create(f.ctx, doc))
	doc.ID = "d2"
	assert.ErrorIs(t, f.store.Documents().Create(f.ctx, doc), domain.ErrDuplicateIdentifier)
}

func TestPostgres_CreacionAtomicaDeDocumento(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	doc := &entity.MovementDocument{ID: "d-huerfano", Number: "RCP000900", Type: entity.DocumentReceipt,
		Status: entity.StatusDraft, WarehouseID: "W", CreatedBy: actor, CreatedAt: now, UpdatedAt: now,
		Items: []entity.LineItem{{ProductID: "P", Quantity: q(1)}, {ProductID: "NO-EXISTE", Quantity: q(1)}}}

	err := f.store.TxRunner().Run(f.ctx, func(r appinventory.TxRepos) error {
		return r.Documents.Create(f.ctx, doc)
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.store.Documents().GetByID(f.ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin cabecera huérfana")
	var headers int
	require.NoError(t, f.pool.QueryRow(f.ctx, `SELECT count(*) FROM movement_documents WHERE number = $1`, doc.Number).Scan(&headers))
	assert.Zero(t, headers)

	created, err := f.docs.Create(f.ctx, appinventory.CreateDocumentInput{
		Type: entity.DocumentReceipt, WarehouseID: "W", Actor: actor,
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(2)}, {ProductID: "P2", Quantity: q(3)}},
	})
	require.NoError(t, err)
	stored, err := f.docs.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestPostgres_TotalesConsistentesDuranteMovimientos(t *testing.T) {
	f := newFixture(t)
	_, err := f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentReceipt, WarehouseID: "W",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(100)}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	var g errgroup.Group
	var checks atomic.Int32
	g.Go(func() error {
		for ctx.Err() == nil {
			ok, err := f.checker.VerifyProduct(f.ctx, "P")
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("total distinto de la suma por bodega")
			}
			checks.Add(1)
		}
		return nil
	})

	var movers errgroup.Group
	for i := 0; i < 10; i++ {
		movers.Go(func() error {
			in := appinventory.CreateDocumentInput{
				Type: entity.DocumentReceipt, WarehouseID: "W2", Actor: actor,
				Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(1)}},
			}
			if i%2 == 0 {
				in = appinventory.CreateDocumentInput{
					Type: entity.DocumentTransfer, FromWarehouseID: "W", ToWarehouseID: "W2", Actor: actor,
					Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(1)}},
				}
			}
			doc, err := f.docs.Create(f.ctx, in)
			if err != nil {
				return err
			}
			_, _, err = f.docs.Validate(f.ctx, doc.ID, actor)
			return err
		})
	}
	require.NoError(t, movers.Wait())
	cancel()
	require.NoError(t, g.Wait())
	assert.Positive(t, checks.Load())

	stock, err := f.store.Stock().GetProductStock(f.ctx, "P")
	require.NoError(t, err)
	assert.True(t, stock.TotalStock.Equal(q(105)))
	assert.True(t, stock.Quantity("W2").Equal(q(10)))
}

func TestPostgres_VerificarLibroNoCreaCeldas(t *testing.T) {
	f := newFixture(t)

	ok, err := f.checker.VerifyLedgerMatchesStock(f.ctx, "P2", "W2")
	require.NoError(t, err)
	assert.True(t, ok)

	stock, err := f.store.Stock().GetProductStock(f.ctx, "P2")
	require.NoError(t, err)
	assert.Empty(t, stock.PerWarehouse)
	var cells int
	require.NoError(t, f.pool.QueryRow(f.ctx, `SELECT count(*) FROM stock`).Scan(&cells))
	assert.Zero(t, cells)

	_, err = f.checker.VerifyLedgerMatchesStock(f.ctx, "nope", "W")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_VerificarLibroNoEsperaBloqueos(t *testing.T) {
	f := newFixture(t)
	_, err := f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentReceipt, WarehouseID: "W",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(4)}},
	})
	require.NoError(t, err)

	tx, err := f.pool.Begin(f.ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(f.ctx) }()
	_, err = tx.Exec(f.ctx, `SELECT quantity FROM stock WHERE product_id = 'P' AND warehouse_id = 'W' FOR UPDATE`)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(f.ctx, 2*time.Second)
	defer cancel()
	ok, err := f.checker.VerifyLedgerMatchesStock(ctx, "P", "W")
	require.NoError(t, err, "la verificación no toma bloqueos de fila")
	assert.True(t, ok)
}

func TestPostgres_PisosDeNumeracion(t *testing.T) {
	f := newFixture(t)
	_, err := f.validate(t, appinventory.CreateDocumentInput{
		Type: entity.DocumentReceipt, WarehouseID: "W",
		Items: []appinventory.LineInput{{ProductID: "P", Quantity: q(5)}},
	})
	require.NoError(t, err)

	// documento cargado con un número mayor que el contador, p. ej. migrado desde otro sistema
	now := time.Now().UTC()
	require.NoError(t, f.store.Documents().Create(f.ctx, &entity.MovementDocument{ID: "d-migrado", Number: "DEL000120",
		Type: entity.DocumentDelivery, Status: entity.StatusDraft, WarehouseID: "W", CreatedBy: actor,
		CreatedAt: now, UpdatedAt: now, Items: []entity.LineItem{{ProductID: "P", Quantity: q(1)}}}))

	floors, err := f.store.Sequences().Floors(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), floors[entity.DocumentReceipt])
	assert.Equal(t, int64(120), floors[entity.DocumentDelivery])
	_, ok := floors[entity.DocumentTransfer]
	assert.False(t, ok)
}
