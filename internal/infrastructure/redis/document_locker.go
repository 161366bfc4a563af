package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain"
)

var _ appinventory.DocumentLocker = (*DocumentLocker)(nil)

const lockRetryInterval = 50 * time.Millisecond

// DocumentLocker exclusión mutua por documento entre instancias de la API.
// La espera está acotada por el TTL: nunca bloquea indefinidamente.
type DocumentLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewDocumentLocker construye el locker. ttl es la vida máxima del bloqueo si la instancia muere.
func NewDocumentLocker(client redislock.RedisClient, ttl time.Duration) *DocumentLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DocumentLocker{locker: redislock.New(client), ttl: ttl}
}

func lockKey(documentID string) string {
	return keyPrefix + "lock:document:" + documentID
}

// Lock obtiene el bloqueo del documento. Si no se obtiene dentro del TTL: ErrConcurrencyConflict.
// La espera usa su propio plazo: redislock devuelve el error del contexto, no ErrNotObtained, cuando
// el plazo vence entre reintentos.
func (l *DocumentLocker) Lock(ctx context.Context, documentID string) (func(context.Context) error, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	lock, err := l.locker.Obtain(waitCtx, lockKey(documentID), l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockRetryInterval),
	})
	if err != nil {
		if waitExpired(ctx, err) {
			return nil, fmt.Errorf("%w: documento %s bloqueado por otra operación", domain.ErrConcurrencyConflict, documentID)
		}
		return nil, fmt.Errorf("redis lock %s: %w", documentID, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("redis unlock %s: %w", documentID, err)
		}
		return nil
	}, nil
}

// waitExpired distingue el fin de la espera propia de una cancelación del llamador.
func waitExpired(ctx context.Context, err error) bool {
	if errors.Is(err, redislock.ErrNotObtained) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
}
