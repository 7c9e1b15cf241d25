package crawl

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OriginLimiter enforces a minimum delay between requests to the same
// origin using token buckets. Each origin gets its own limiter, so crawls
// against different sites proceed independently while requests within one
// site are spaced out.
type OriginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minDelay time.Duration
}

// NewOriginLimiter creates an OriginLimiter with the given minimum delay
// between requests to one origin. Burst is 1; no bursting allowed.
func NewOriginLimiter(minDelay time.Duration) *OriginLimiter {
	return &OriginLimiter{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
	}
}

// Wait blocks until the rate limit allows a request to the origin.
// Returns an error if the context is canceled before the wait completes.
func (l *OriginLimiter) Wait(ctx context.Context, origin string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[origin]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.minDelay), 1)
		l.limiters[origin] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
