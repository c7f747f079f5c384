package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	rl := NewRateLimiter(RateLimiterConfig{Rate: 10, Burst: 3, Now: clock.Now})

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d within burst rejected", i)
		}
	}
	ok, wait := rl.Reserve()
	if ok {
		t.Fatal("request beyond burst allowed")
	}
	if wait != 100*time.Millisecond {
		t.Errorf("wait = %v, want 100ms", wait)
	}

	clock.Advance(100 * time.Millisecond)
	if !rl.Allow() {
		t.Error("token should refill after 1/rate")
	}

	clock.Advance(time.Hour)
	if got := rl.Tokens(); got != 3 {
		t.Errorf("Tokens() = %v, want capped at burst 3", got)
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, Now: clock.Now})

	if err := rl.Execute(context.Background(), succeeding); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := rl.Execute(context.Background(), succeeding); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("second err = %v, want ErrRateLimitExceeded", err)
	}
}
