package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/timeutil"
)

// Limiter throttles calls per key, typically one key per remote service.
type Limiter interface {
	Allow(key string) bool
	Wait(ctx context.Context, key string) error
}

// TokenBucketLimiter gives every key a bucket of limit tokens, refilled one per refillRate.
type TokenBucketLimiter struct {
	buckets    map[string]*bucket
	limit      int
	refillRate time.Duration
	clock      timeutil.TimeProvider
	mu         sync.Mutex
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

func NewTokenBucketLimiter(limit int, refillRate time.Duration, clock timeutil.TimeProvider) *TokenBucketLimiter {
	if clock == nil {
		clock = timeutil.NewSystemTimeProvider()
	}
	return &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		limit:      limit,
		refillRate: refillRate,
		clock:      clock,
	}
}

// PerSecond allows n calls per second with a burst of n. n <= 0 disables limiting.
func PerSecond(n int) Limiter {
	if n <= 0 {
		return NewNoOpRateLimiter()
	}
	return NewTokenBucketLimiter(n, time.Second/time.Duration(n), nil)
}

func (tbl *TokenBucketLimiter) Allow(key string) bool {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	b := tbl.refill(key)
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (tbl *TokenBucketLimiter) Wait(ctx context.Context, key string) error {
	for {
		if tbl.Allow(key) {
			return nil
		}
		logutils.Log.WithField("key", key).Debug("Rate limit reached, waiting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tbl.clock.After(tbl.refillRate):
		}
	}
}

// Remaining returns the tokens currently available for key.
func (tbl *TokenBucketLimiter) Remaining(key string) int {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	return tbl.refill(key).tokens
}

func (tbl *TokenBucketLimiter) Reset(key string) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	delete(tbl.buckets, key)
}

// refill must be called with mu held.
func (tbl *TokenBucketLimiter) refill(key string) *bucket {
	now := tbl.clock.Now()
	b, exists := tbl.buckets[key]
	if !exists {
		b = &bucket{tokens: tbl.limit, lastRefill: now}
		tbl.buckets[key] = b
		return b
	}
	if elapsed := now.Sub(b.lastRefill); tbl.refillRate > 0 && elapsed >= tbl.refillRate {
		added := int(elapsed / tbl.refillRate)
		b.tokens = min(tbl.limit, b.tokens+added)
		b.lastRefill = b.lastRefill.Add(time.Duration(added) * tbl.refillRate)
	}
	return b
}

// NoOpRateLimiter never limits.
type NoOpRateLimiter struct{}

func NewNoOpRateLimiter() Limiter {
	return NoOpRateLimiter{}
}

func (NoOpRateLimiter) Allow(_ string) bool {
	return true
}

func (NoOpRateLimiter) Wait(_ context.Context, _ string) error {
	return nil
}
