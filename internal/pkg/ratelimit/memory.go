package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

var (
	ErrAlreadyStarted = errors.New("ratelimit: memory store already started")
	ErrNotStarted     = errors.New("ratelimit: memory store not started")
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStats is a snapshot of MemoryStore counters.
type MemoryStats struct {
	WindowsCreated int64
	WindowsEvicted int64
	ActiveWindows  int
}

// MemoryStore keeps counters in process memory. Windows whose reset time has
// passed are dropped by Sweep, which Start runs on a ticker.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	sweepInterval time.Duration
	cancel        context.CancelFunc
	done          chan struct{}

	created atomic.Int64
	evicted atomic.Int64
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSweepInterval sets how often Start evicts expired windows.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		if d > 0 {
			m.sweepInterval = d
		}
	}
}

// WithNow replaces the time source.
func WithNow(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore builds an empty store. Call Start to enable background eviction.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		windows:       make(map[string]*window),
		now:           time.Now,
		sweepInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hit implements Store.
func (m *MemoryStore) Hit(_ context.Context, key string, d time.Duration) (int, time.Time, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		m.windows[key] = w
		m.created.Inc()
	}
	w.count++

	return w.count, w.resetAt, nil
}

// Sweep removes every window that has already closed and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
			n++
		}
	}
	m.evicted.Add(int64(n))
	return n
}

// Start runs Sweep every sweep interval until ctx is done or Stop is called.
func (m *MemoryStore) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.DebugContext(ctx, "rate limit windows evicted", "count", n)
				}
			}
		}
	}()
	return nil
}

// Stop ends the background sweep and waits for it to exit.
func (m *MemoryStore) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return ErrNotStarted
	}
	cancel()
	<-done
	return nil
}

// Close is Stop that ignores ErrNotStarted.
func (m *MemoryStore) Close() error {
	if err := m.Stop(); err != nil && !errors.Is(err, ErrNotStarted) {
		return err
	}
	return nil
}

// Stats returns the current counters.
func (m *MemoryStore) Stats() MemoryStats {
	m.mu.Lock()
	active := len(m.windows)
	m.mu.Unlock()

	return MemoryStats{
		WindowsCreated: m.created.Load(),
		WindowsEvicted: m.evicted.Load(),
		ActiveWindows:  active,
	}
}
