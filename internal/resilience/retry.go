package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff doubles each attempt with up to ±25% jitter, so concurrent
// dispatches hitting the same broker hiccup do not retry in lockstep.
const (
	backoffMultiplier = 2.0
	backoffJitter     = 0.25
)

// RetryConfig bounds the retries around one call. The zero value gives three
// attempts within roughly a second, sized for a queue publish sitting on the
// dispatch request path.
type RetryConfig struct {
	// Attempts is the total number of tries including the first. Default: 3.
	Attempts int

	// BaseDelay seeds the exponential backoff. Default: 200ms.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff sleep. Default: 2s.
	MaxDelay time.Duration

	// Retryable decides which errors get another try. Nil means IsTransient:
	// broker and network trouble is retried, everything else fails fast.
	Retryable func(err error) bool

	// OnRetry is called with the attempt number and error before each sleep.
	OnRetry func(attempt int, err error)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 200 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 2 * time.Second
	}
	if c.Retryable == nil {
		c.Retryable = IsTransient
	}
	return c
}

// DoVal runs fn until it succeeds, exhausts the attempt budget, hits a
// non-retryable error, or ctx is canceled. The last error is returned when
// no attempt succeeded.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !cfg.Retryable(lastErr) {
			return zero, lastErr
		}
		if attempt == cfg.Attempts-1 {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(computeBackoff(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func computeBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(backoffMultiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	delay += (rand.Float64()*2 - 1) * delay * backoffJitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(component, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying after transient error",
			zap.String("component", component),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
