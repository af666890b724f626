// Package ratelimit implements a fixed-window request counter keyed by an
// arbitrary string such as the client IP.
//
// A window opens on the first hit for a key and lasts for the configured
// duration; every hit inside it increments the same counter. Stores decide
// where counters live: MemoryStore for a single process, RedisStore when
// several replicas must share the budget.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidConfig     = errors.New("ratelimit: invalid configuration")
	ErrRateLimitExceeded = errors.New("ratelimit: rate limit exceeded")
)

// Store counts hits per key inside a window.
type Store interface {
	// Hit increments the counter for key and returns its value together with
	// the time the current window closes.
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Result describes the state of a key after a hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait before the window resets,
// rounded up to whole seconds and never less than one.
func (r Result) RetryAfter(now time.Time) time.Duration {
	secs := math.Ceil(r.ResetAt.Sub(now).Seconds())
	return time.Duration(max(secs, 1)) * time.Second
}

// Limiter allows Limit hits per Window for every key.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// New returns a Limiter backed by store.
func New(store Store, limit int, window time.Duration) (*Limiter, error) {
	if store == nil || limit <= 0 || window <= 0 {
		return nil, ErrInvalidConfig
	}
	return &Limiter{store: store, limit: limit, window: window}, nil
}

// Allow records one hit for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Hit(ctx, key, l.window)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-count, 0),
		ResetAt:   resetAt,
	}, nil
}
