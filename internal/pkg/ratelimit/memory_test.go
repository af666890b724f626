package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Add(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestLimiter_FixedWindow(t *testing.T) {
	clk := &fakeNow{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(WithNow(clk.Now))
	l, err := New(store, 3, time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	for i := range 3 {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, 60*time.Second, res.RetryAfter(clk.Now()))

	other, err := l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	clk.Add(time.Minute)
	res, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(nil, 1, time.Second)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(NewMemoryStore(), 0, time.Second)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(NewMemoryStore(), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Unix(100, 0)
	assert.Equal(t, 2*time.Second, Result{ResetAt: now.Add(1500 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, time.Second, Result{ResetAt: now.Add(-time.Second)}.RetryAfter(now))
}

func TestMemoryStore_Sweep(t *testing.T) {
	clk := &fakeNow{t: time.Unix(0, 0)}
	store := NewMemoryStore(WithNow(clk.Now))
	ctx := context.Background()

	_, _, err := store.Hit(ctx, "a", time.Second)
	require.NoError(t, err)
	_, _, err = store.Hit(ctx, "b", time.Hour)
	require.NoError(t, err)

	clk.Add(2 * time.Second)
	assert.Equal(t, 1, store.Sweep())

	s := store.Stats()
	assert.Equal(t, int64(2), s.WindowsCreated)
	assert.Equal(t, int64(1), s.WindowsEvicted)
	assert.Equal(t, 1, s.ActiveWindows)
}

func TestMemoryStore_StartStop(t *testing.T) {
	store := NewMemoryStore(WithSweepInterval(5 * time.Millisecond))
	_, _, err := store.Hit(context.Background(), "k", time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, store.Start(context.Background()))
	assert.ErrorIs(t, store.Start(context.Background()), ErrAlreadyStarted)

	assert.Eventually(t, func() bool { return store.Stats().ActiveWindows == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Stop())
	assert.ErrorIs(t, store.Stop(), ErrNotStarted)
	assert.NoError(t, store.Close())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	l, err := New(store, 100, time.Hour)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				res, err := l.Allow(context.Background(), "shared")
				if err == nil && res.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}
