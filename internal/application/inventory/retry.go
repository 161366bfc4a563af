package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/pkg/logger"
)

// RetryPolicy reintentos ante domain.ErrConcurrencyConflict (serialización o deadlock en la BD).
// Cualquier otro error se devuelve de inmediato.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy 3 reintentos con espera inicial de 20ms.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, Backoff: 20 * time.Millisecond}

func (p RetryPolicy) run(ctx context.Context, log *logger.Logger, op string, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Backoff
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = time.Millisecond
	}
	exp.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(p.MaxRetries, 0))), ctx)
	attempt := 0
	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !errors.Is(err, domain.ErrConcurrencyConflict) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		attempt++
		log.Warn().Err(err).Str("operation", op).Int("attempt", attempt).Dur("wait", wait).
			Msg("conflicto de concurrencia, reintentando")
	})
}
