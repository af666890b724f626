// Package goroutine runs background work with a concurrency cap and panic recovery.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// Stats is a snapshot of Manager counters.
type Stats struct {
	Started  int64
	Skipped  int64
	Panicked int64
	Failed   int64
}

// Manager runs functions in goroutines with a fixed concurrency limit.
// Tasks that do not fit are dropped with a warning instead of queueing.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool

	started  atomic.Int64
	skipped  atomic.Int64
	panicked atomic.Int64
	failed   atomic.Int64
}

// NewManager creates a Manager that runs at most maxGoroutine tasks at once.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules f. It returns false when f was not started because the
// manager is closed or already at its limit.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		g.skipped.Inc()
		slog.WarnContext(ctx, "goroutine manager is closed, skipping task")
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		g.skipped.Inc()
		slog.WarnContext(ctx, "maximum goroutine limit reached, skipping task")
		return false
	}

	g.started.Inc()
	g.wg.Go(func() {
		defer func() { <-g.sema }()
		defer g.recover(ctx)

		if ctx.Err() != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "because", ctx.Err())
			return
		}
		if err := f(ctx); err != nil {
			g.failed.Inc()
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})
	return true
}

func (g *Manager) recover(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}
	g.panicked.Inc()

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", paths)
		return
	}
	slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
}

// Wait stops accepting tasks, blocks until running ones finish and returns their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

// Stats returns the current counters.
func (g *Manager) Stats() Stats {
	return Stats{
		Started:  g.started.Load(),
		Skipped:  g.skipped.Load(),
		Panicked: g.panicked.Load(),
		Failed:   g.failed.Load(),
	}
}
