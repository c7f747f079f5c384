package resilience

import (
	"context"
	"math"
	"sync"
	"time"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 20
	Burst int

	// Now is the clock.
	// Default: time.Now
	Now func() time.Time
}

// RateLimiter implements a token bucket rate limiter.
type RateLimiter struct {
	config RateLimiterConfig

	mu          sync.Mutex
	tokens      float64
	lastRefresh time.Time
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 20
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		config:      config,
		tokens:      float64(config.Burst),
		lastRefresh: config.Now(),
	}
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	ok, _ := rl.reserve()
	return ok
}

// Reserve takes one token if available. Otherwise it reports how long until
// one will be.
func (rl *RateLimiter) Reserve() (bool, time.Duration) {
	return rl.reserve()
}

// Execute runs op if a token is available and returns ErrRateLimitExceeded
// otherwise.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

func (rl *RateLimiter) reserve() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}
	wait := (1 - rl.tokens) / rl.config.Rate
	return false, time.Duration(math.Ceil(wait * float64(time.Second)))
}

func (rl *RateLimiter) refillLocked() {
	now := rl.config.Now()
	elapsed := now.Sub(rl.lastRefresh)
	if elapsed <= 0 {
		return
	}
	rl.lastRefresh = now
	rl.tokens = math.Min(float64(rl.config.Burst), rl.tokens+elapsed.Seconds()*rl.config.Rate)
}
