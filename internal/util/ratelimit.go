package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token-bucket rate limiter that replenishes tokens
// at a fixed rate. A nil *RateLimiter never limits.
type RateLimiter struct {
	rate     float64 // tokens per second
	burst    float64
	tokens   float64
	lastTime time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a RateLimiter that allows perMinute operations per
// minute with bursts of up to burst operations. perMinute <= 0 returns nil.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	b := float64(max(burst, 1))
	return &RateLimiter{
		rate:     float64(perMinute) / 60.0,
		burst:    b,
		tokens:   b,
		lastTime: time.Now(),
	}
}

// TryAcquire takes a token if one is available and reports whether it did.
// It never blocks.
func (rl *RateLimiter) TryAcquire() bool {
	if rl == nil {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a rate-limit token is available or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for !rl.TryAcquire() {
		// Wait a short interval before checking again.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// refill must be called with mu held.
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.tokens = min(rl.tokens+elapsed*rl.rate, rl.burst)
	rl.lastTime = now
}
