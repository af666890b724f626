// Package idempotency guards side effects behind a caller supplied key so a
// retried request runs them at most once.
package idempotency

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrAlreadyFailed     = errors.New("idempotency: operation already failed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"        // operation can proceed
	StateInProgress State = "in_progress" // another caller holds the key
	StateCompleted  State = "completed"   // a previous call succeeded
	StateFailed     State = "failed"      // a previous call failed
	StateError      State = "error"       // the tracker itself failed
)

func (s State) String() string {
	return string(s)
}

func parseState(s string) (State, error) {
	switch State(s) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(s), nil
	default:
		return StateError, ErrInvalidState
	}
}

// Tracker records the state of keyed operations.
type Tracker interface {
	// Acquire takes the key for lockDuration. It returns StateNone when the
	// caller now owns the key, or the state somebody else left behind.
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) {
		o.lockDuration = lockDuration
	}
}

func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) {
		o.stateTTL = stateTTL
	}
}

// Exec runs fn once per key. A key that already completed, failed or is still
// running returns the matching sentinel error without calling fn.
func Exec(ctx context.Context, t Tracker, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := t.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		if markErr := t.MarkFailed(ctx, key, o.stateTTL); markErr != nil {
			return errors.Join(err, markErr)
		}
		return err
	}

	return t.MarkCompleted(ctx, key, o.stateTTL)
}
