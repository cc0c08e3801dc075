package resilience

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	rl := NewRateLimiter(RateLimiterConfig{Rate: 2, Burst: 2, Now: clk.now})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected burst of 2")
	}
	if rl.Allow() {
		t.Fatal("expected bucket to be empty")
	}
	clk.advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Error("expected one token after 500ms at 2/s")
	}
}

func TestRateLimiter_WaitPaces(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1})
	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected at least ~30ms for 3 paced tokens, got %s", elapsed)
	}
}

func TestRateLimiter_WaitCanceled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
	if tokens := rl.Tokens(); tokens < -0.01 {
		t.Errorf("expected canceled reservation to be returned, tokens=%f", tokens)
	}
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	if !rl.Unlimited() {
		t.Fatal("expected zero rate to be unlimited")
	}
	for i := 0; i < 1000; i++ {
		if !rl.Allow() {
			t.Fatal("unlimited limiter rejected a request")
		}
	}
	ran := false
	if err := rl.ExecuteWait(context.Background(), func() error { ran = true; return nil }); err != nil || !ran {
		t.Errorf("expected fn to run, err=%v", err)
	}
}
