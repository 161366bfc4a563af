// Command migrate aplica o revierte el esquema de PostgreSQL.
//
//	migrate up       aplica las migraciones pendientes
//	migrate down     revierte todas las migraciones
//	migrate version  muestra la versión actual
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/stockmaster/internal/infrastructure/postgres"
	"github.com/jhoicas/stockmaster/pkg/config"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m, err := postgres.NewMigrator(pool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("crear migrador")
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("versión del esquema")
		}
	default:
		err = fmt.Errorf("comando desconocido %q (up, down, version)", cmd)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("migración fallida")
		os.Exit(1)
	}
}
