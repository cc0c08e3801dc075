package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Rate is the sustained number of requests per second. Zero means no limit.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the bucket size.
	Burst int `yaml:"burst" mapstructure:"burst"`

	Now func() time.Time `yaml:"-" mapstructure:"-"`
}

func (c *RateLimiterConfig) applyDefaults() {
	if c.Rate > 0 && c.Burst <= 0 {
		c.Burst = max(1, int(c.Rate))
	}
}

// RateLimiter is a token bucket. The zero-rate limiter admits everything.
type RateLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	config.applyDefaults()
	now := clock(config.Now)
	return &RateLimiter{
		rate:   config.Rate,
		burst:  float64(config.Burst),
		now:    now,
		tokens: float64(config.Burst),
		last:   now(),
	}
}

// Unlimited reports whether the limiter admits every request.
func (rl *RateLimiter) Unlimited() bool {
	return rl.rate <= 0
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	if rl.Unlimited() {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx ends. The token is reserved
// up front, so concurrent waiters are served in arrival order.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.Unlimited() {
		return ctx.Err()
	}
	delay := rl.reserve()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		rl.cancelReservation()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExecuteWait waits for a token, then runs fn.
func (rl *RateLimiter) ExecuteWait(ctx context.Context, fn func() error) error {
	if err := rl.Wait(ctx); err != nil {
		return err
	}
	return fn()
}

// Tokens returns the current number of available tokens. It is negative
// while reservations are outstanding.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	rl.tokens--
	if rl.tokens >= 0 {
		return 0
	}
	return time.Duration(-rl.tokens / rl.rate * float64(time.Second))
}

func (rl *RateLimiter) cancelReservation() {
	rl.mu.Lock()
	rl.tokens++
	rl.mu.Unlock()
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	rl.tokens += now.Sub(rl.last).Seconds() * rl.rate
	rl.last = now
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}
}
