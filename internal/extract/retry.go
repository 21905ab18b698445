// Package extract provides coupon extraction from free-form text and images.
// This file contains retry logic with exponential backoff and jitter.
package extract

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// isPermanent reports whether an error should never be retried.
func isPermanent(err error) bool {
	return errors.Is(err, errImagesUnsupported) || errors.Is(err, context.Canceled)
}

// CalculateBackoff calculates the delay before the next retry attempt.
// Uses the Full Jitter algorithm:
//
//	delay = random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initial, max time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	exp := math.Pow(2, float64(attempt-1))
	delay := time.Duration(float64(initial) * exp)
	if delay > max {
		delay = max
	}
	if delay <= 0 {
		return 0
	}

	// crypto/rand for uniform distribution without bias
	maxNs := big.NewInt(int64(delay))
	jitterBig, err := rand.Int(rand.Reader, maxNs)
	if err != nil {
		return delay / 2
	}

	return time.Duration(jitterBig.Int64())
}

// Sleep waits for the specified duration, respecting context cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRetry executes fn up to cfg.MaxAttempts times with full-jitter
// backoff between attempts. Returns the last error if all attempts fail.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if isPermanent(err) {
			return err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}
