package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	state     State
	expiresAt time.Time
}

// MemoryTracker keeps states in process memory. Expired entries are dropped lazily.
type MemoryTracker struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *MemoryTracker {
	return &MemoryTracker{entries: make(map[string]entry), now: time.Now}
}

func (m *MemoryTracker) Acquire(_ context.Context, key string, lockDuration time.Duration) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expiresAt) {
		return e.state, nil
	}
	m.entries[key] = entry{state: StateInProgress, expiresAt: now.Add(lockDuration)}
	return StateNone, nil
}

func (m *MemoryTracker) MarkCompleted(_ context.Context, key string, ttl time.Duration) error {
	m.set(key, StateCompleted, ttl)
	return nil
}

func (m *MemoryTracker) MarkFailed(_ context.Context, key string, ttl time.Duration) error {
	m.set(key, StateFailed, ttl)
	return nil
}

func (m *MemoryTracker) set(key string, s State, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{state: s, expiresAt: m.now().Add(ttl)}
}
