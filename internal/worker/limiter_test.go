package worker

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}

	l3 := NewLimiter(0, 1)
	if l3.defaultRate != rate.Inf {
		t.Errorf("expected unlimited rate for 0, got %v", l3.defaultRate)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "Members"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "Benefit"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if err := limiter.Wait(context.Background(), "Members"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1: the token is consumed, the next one is a second away
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "Members"); err == nil {
		t.Errorf("expected wait to fail (exhausted tokens)")
	}

	if err := limiter.Wait(ctx, "Addresses"); err != nil {
		t.Errorf("expected wait to pass for other table: %v", err)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(ctx, "Members"); err != nil {
			t.Fatalf("unlimited limiter refused call %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("unlimited limiter throttled: %v", elapsed)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	if err := limiter.Wait(context.Background(), "Members"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(ctx, "Members"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
