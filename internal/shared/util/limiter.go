package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// NewIntervalLimiter allows burst events at once and then one event per
// interval. A non-positive interval never throttles.
func NewIntervalLimiter(interval time.Duration, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if interval <= 0 {
		return &Limiter{inner: rate.NewLimiter(rate.Inf, burst)}
	}
	return &Limiter{inner: rate.NewLimiter(rate.Every(interval), burst)}
}

// Allow reports whether an event with weight n may happen at time now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}
