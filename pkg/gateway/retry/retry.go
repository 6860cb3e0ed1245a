// Package retry runs gateway operations under an exponential backoff policy.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
)

// Config defines retry behavior.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool

	// OnRetry, if set, is called before each backoff wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
	Jitter:     true,
}

// Operation is one physical attempt of a logical transaction.
type Operation[T any] func(ctx context.Context, attempt int) (T, error)

// ShouldRetry decides whether attempt (0-based) may be followed by another.
func ShouldRetry(err error, attempt, maxRetries int) bool {
	if err == nil || attempt >= maxRetries {
		return false
	}

	gwErr, ok := gwerr.As(gwerr.FromTransport(err))
	if !ok {
		// Caller cancellation.
		return false
	}

	switch gwErr.Kind {
	case gwerr.KindRateLimit, gwerr.KindAuth, gwerr.KindPolicy, gwerr.KindToken:
		return false
	case gwerr.KindNetwork, gwerr.KindUpstream:
		return true
	}
	return gwErr.StatusCode >= 500
}

// Delay returns min(base * 2^attempt, max), with ±25% jitter when enabled.
func Delay(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter {
		delay += delay * 0.25 * (2*rand.Float64() - 1)
		if delay < 0 {
			delay = 0
		}
	}

	return time.Duration(delay)
}

// Do executes op until it succeeds, fails with a non-retryable error, or
// MaxRetries+1 attempts have been made. The last error is returned unchanged.
// Only the calling goroutine waits during backoff.
func Do[T any](ctx context.Context, cfg Config, op Operation[T]) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		err = gwerr.FromTransport(err)
		if !ShouldRetry(err, attempt, cfg.MaxRetries) {
			return zero, err
		}

		delay := Delay(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
