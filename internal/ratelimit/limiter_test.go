package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/timeutil"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTokenBucketAllow(t *testing.T) {
	clock := timeutil.NewInstantTimeProvider(start)
	limiter := NewTokenBucketLimiter(2, time.Second, clock)

	if !limiter.Allow("api") || !limiter.Allow("api") {
		t.Fatal("burst of 2 should be allowed")
	}
	if limiter.Allow("api") {
		t.Error("third call should be limited")
	}
	if !limiter.Allow("other") {
		t.Error("keys must not share buckets")
	}

	clock.Advance(1500 * time.Millisecond)
	if got := limiter.Remaining("api"); got != 1 {
		t.Errorf("Remaining() = %d, want 1 after one refill period", got)
	}

	clock.Advance(time.Hour)
	if got := limiter.Remaining("api"); got != 2 {
		t.Errorf("Remaining() = %d, want the limit", got)
	}

	limiter.Allow("api")
	limiter.Reset("api")
	if got := limiter.Remaining("api"); got != 2 {
		t.Errorf("Remaining() after Reset = %d, want 2", got)
	}
}

func TestTokenBucketWait(t *testing.T) {
	clock := timeutil.NewInstantTimeProvider(start)
	limiter := NewTokenBucketLimiter(1, 200*time.Millisecond, clock)

	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background(), "api"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if got := clock.Waited(); got != 400*time.Millisecond {
		t.Errorf("waited %v, want 400ms", got)
	}
}

func TestTokenBucketWaitCanceled(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Hour, nil)
	limiter.Allow("api")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(ctx, "api"); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestPerSecond(t *testing.T) {
	if _, ok := PerSecond(0).(NoOpRateLimiter); !ok {
		t.Error("PerSecond(0) should not limit")
	}
	limiter := PerSecond(3)
	for i := 0; i < 3; i++ {
		if !limiter.Allow("api") {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if err := NewNoOpRateLimiter().Wait(context.Background(), "api"); err != nil {
		t.Errorf("NoOp Wait() error = %v", err)
	}
}
