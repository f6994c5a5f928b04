// Package resilience implements the retry and circuit-breaker fault
// tolerance patterns shared by the upstream invoker (C4) and the LLM
// dispatcher (C9).
package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig configures exponential backoff with full jitter.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Retryable reports whether err should trigger another attempt. A nil
	// Retryable treats every non-nil error as retryable.
	Retryable func(err error) bool
}

// DefaultRetryConfig matches spec.md §4.4: R=3, base delay, multiplier 2,
// full jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Retry executes fn with exponential backoff and full jitter, stopping
// early when ctx is cancelled or fn returns a non-retryable error.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}

		if attempt < cfg.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fullJitter(delay)):
			}
			delay = nextDelay(delay, cfg)
		}
	}
	return lastErr
}

func nextDelay(current time.Duration, cfg RetryConfig) time.Duration {
	next := time.Duration(float64(current) * cfg.Multiplier)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

// fullJitter returns a random duration in [0, d] (AWS "full jitter").
func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
