// Package retry wraps fallible calls with exponential backoff.
//
// The backoff between attempts grows by a fixed multiplier:
//
//	delay(n) = BaseDelay * Multiplier^(n-1)   for attempt n >= 1
//
// No delay follows the final attempt; the last error is returned as-is.
// Sleeps respect context cancellation.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Config controls retry behaviour.
type Config struct {
	// MaxAttempts is the total number of calls, including the first.
	// Default: 3.
	MaxAttempts int
	// BaseDelay is the wait after the first failed attempt. Default: 5s.
	BaseDelay time.Duration
	// Multiplier scales the delay after each failed attempt. Default: 1.5.
	Multiplier float64
	// Logger records retry attempts. Nil means silent retries.
	Logger *slog.Logger
	// Sleep overrides the delay primitive. Tests inject a fake here.
	// Default: context-aware time.After.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c *Config) defaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 5 * time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 1.5
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls op until it succeeds or MaxAttempts is exhausted. The zero value
// of T and the last error are returned when all attempts fail. A cancelled
// context stops further attempts immediately.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) (T, error) {
	cfg.defaults()

	var zero T
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnContext(ctx, "retrying call",
				"attempt", attempt,
				"max_attempts", cfg.MaxAttempts,
				"backoff_ms", delay.Milliseconds(),
				"error", err)
		}
		if err := cfg.Sleep(ctx, delay); err != nil {
			return zero, lastErr
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}
	return zero, lastErr
}
