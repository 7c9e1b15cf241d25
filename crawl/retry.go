package crawl

import (
	"context"
	"math/rand"
	"time"
)

// DefaultRetryDelays returns the backoff delays for adapter retries:
// 1s, 2s, 4s (3 retries, 4 attempts total).
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// retry runs fn with exponential backoff, returning the first successful
// result. Each delay is jittered by ±50% so that concurrent fetches against
// the same origin don't retry in lockstep. The context is checked before
// every sleep and every attempt.
func retry[T any](ctx context.Context, delays []time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		// Don't sleep after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(jitter(delays[attempt])):
		}
	}

	return zero, lastErr
}

// jitter scales d by a random factor in [0.5, 1.5).
func jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.5 + rand.Float64()))
}
