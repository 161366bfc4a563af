package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
	"github.com/jhoicas/stockmaster/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stockmaster/internal/infrastructure/pdf"
	"github.com/jhoicas/stockmaster/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stockmaster/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stockmaster/internal/interfaces/http"
	"github.com/jhoicas/stockmaster/pkg/config"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

// storage repositorios y runner transaccional de un backend.
type storage struct {
	runner      appinventory.TxRunner
	stock       repository.StockRepository
	ledger      repository.LedgerRepository
	documents   repository.DocumentRepository
	adjustments repository.AdjustmentRepository
	products    repository.ProductRepository
	warehouses  repository.WarehouseRepository
	sequences   repository.SequenceRepository
	floors      func(context.Context) (map[entity.DocumentType]int64, error) // nil en memoria
	close       func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Inventory.StorageBackend == config.BackendMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{
			runner:      memory.NewTxRunner(store),
			stock:       store.Stock(),
			ledger:      store.Ledger(),
			documents:   store.Documents(),
			adjustments: store.Adjustments(),
			products:    store.Products(),
			warehouses:  store.Warehouses(),
			sequences:   store.Sequences(),
			close:       func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	store := postgres.NewStore(pool)
	return &storage{
		runner:      store.TxRunner(),
		stock:       store.Stock(),
		ledger:      store.Ledger(),
		documents:   store.Documents(),
		adjustments: store.Adjustments(),
		products:    store.Products(),
		warehouses:  store.Warehouses(),
		sequences:   store.Sequences(),
		floors:      store.Sequences().Floors,
		close:       pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Inventory.StorageBackend).
		Str("numbering", cfg.Inventory.NumberingBackend).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: todas las rutas protegidas responderán 401")
	}

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	// Redis: numeración compartida entre instancias y bloqueo de documentos.
	sequences := st.sequences
	var locker appinventory.DocumentLocker
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = infraredis.NewDocumentLocker(rdb, cfg.Inventory.DocumentLockTTL)
		if cfg.Inventory.NumberingBackend == config.BackendRedis {
			redisSeqs := infraredis.NewSequenceRepository(rdb)
			if st.floors != nil {
				floors, err := st.floors(ctx)
				if err != nil {
					log.Fatal().Err(err).Msg("leer numeración existente")
				}
				if err := redisSeqs.Seed(ctx, floors); err != nil {
					log.Fatal().Err(err).Msg("sembrar numeración en Redis")
				}
				log.Info().Int("types", len(floors)).Msg("numeración de Redis sembrada desde PostgreSQL")
			}
			sequences = redisSeqs
		}
	}

	retry := appinventory.RetryPolicy{MaxRetries: cfg.Inventory.MaxRetries, Backoff: cfg.Inventory.RetryBackoff}
	engine := appinventory.NewMutationEngine(st.runner, st.products, st.warehouses, retry, log)
	numbering := appinventory.NewNumberingService(sequences)
	documentUC := appinventory.NewDocumentUseCase(st.runner, st.documents, engine, numbering, locker, log)
	adjustmentUC := appinventory.NewAdjustmentUseCase(st.runner, st.adjustments, engine, numbering, log)
	queryUC := appinventory.NewStockQueryUseCase(st.stock, st.ledger)
	checker := appinventory.NewConsistencyChecker(st.runner, st.stock, st.ledger, log)

	// PDF: comprobante imprimible de documentos de movimiento
	slipUC := appinventory.NewSlipUseCase(st.documents, st.ledger, st.products, infrapdf.NewMarotoPDFGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents:   documentUC,
		Adjustments: adjustmentUC,
		Queries:     queryUC,
		Checker:     checker,
		Slips:       slipUC,
		AppName:     cfg.App.Name,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
