// Package resilience provides the rate limiter and circuit breaker the
// forecast fetcher wraps its HTTP calls in.
package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces "at most max_requests in the last 60 seconds."
// golang.org/x/time/rate's token bucket is continuous rather than a
// true sliding window; configured with a burst of one and a refill rate
// of max_requests per 60s, it admits calls at least 60s/max_requests
// apart, so no trailing 60s interval ever holds more than max_requests
// admitted calls.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter constructs a limiter admitting at most maxPerMinute
// calls in any trailing 60-second window.
func NewRateLimiter(maxPerMinute int) *RateLimiter {
	if maxPerMinute <= 0 {
		maxPerMinute = 1
	}
	interval := time.Minute / time.Duration(maxPerMinute)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Acquire blocks until a slot frees, or ctx is cancelled.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
