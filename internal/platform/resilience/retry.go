// internal/platform/resilience/retry.go
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"domscout/internal/platform/logx"
)

// Retrier reintenta una operación con backoff exponencial.
// Se usa en los límites de persistencia: una herramienta externa nunca se reintenta.
type Retrier struct {
	maxRetries        int
	backoffBase       time.Duration
	backoffMultiplier float64
	maxBackoff        time.Duration
	logger            logx.Logger

	// sleep es reemplazable en tests
	sleep func(ctx context.Context, d time.Duration) error
}

// RetryConfig configura un Retrier.
type RetryConfig struct {
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// NewRetrier crea un Retrier normalizando valores inválidos.
func NewRetrier(cfg RetryConfig, logger logx.Logger) *Retrier {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffMultiplier < 1.0 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if logger == nil {
		logger = logx.NewNop()
	}

	return &Retrier{
		maxRetries:        cfg.MaxRetries,
		backoffBase:       cfg.BackoffBase,
		backoffMultiplier: cfg.BackoffMultiplier,
		maxBackoff:        cfg.MaxBackoff,
		logger:            logger.With("component", "retrier"),
		sleep:             sleepContext,
	}
}

// Do ejecuta fn hasta maxRetries+1 veces. Retorna el último error envuelto.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.Backoff(attempt - 1)
			r.logger.Debug("backing off before retry", "op", op, "attempt", attempt, "delay_ms", backoff.Milliseconds())
			if err := r.sleep(ctx, backoff); err != nil {
				return fmt.Errorf("%s: context cancelled during backoff: %w", op, err)
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("operation succeeded after retry", "op", op, "attempts", attempt+1)
			}
			return nil
		}

		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) {
			return fmt.Errorf("%s: %w", op, perm.err)
		}
		r.logger.Warn("operation failed", "op", op, "attempt", attempt+1, "error", err.Error())

		if ctx.Err() != nil {
			return fmt.Errorf("%s: context cancelled after %d attempts: %w", op, attempt+1, lastErr)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, r.maxRetries+1, lastErr)
}

// Permanent marca err como no reintentable: Do lo retorna de inmediato.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Backoff calcula base * multiplier^attempt acotado por maxBackoff.
func (r *Retrier) Backoff(attempt int) time.Duration {
	backoff := time.Duration(float64(r.backoffBase) * math.Pow(r.backoffMultiplier, float64(attempt)))
	if backoff > r.maxBackoff || backoff <= 0 {
		return r.maxBackoff
	}
	return backoff
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
