// Package redis adaptadores sobre Redis: numeración distribuida (INCR) y bloqueo de documentos
// entre instancias (redislock).
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockmaster/pkg/config"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

const keyPrefix = "stockmaster:"

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}
	if log != nil {
		log.Info().Str("addr", cfg.Address).Int("db", cfg.DB).Msg("conectado a redis")
	}
	return rdb, nil
}
