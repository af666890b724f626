package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_RunsOnce(t *testing.T) {
	tr := NewMemory()
	ctx := context.Background()
	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, Exec(ctx, tr, "import-1", fn))
	assert.ErrorIs(t, Exec(ctx, tr, "import-1", fn), ErrAlreadyCompleted)
	require.NoError(t, Exec(ctx, tr, "import-2", fn))
	assert.Equal(t, 2, calls)
}

func TestExec_FailureIsRemembered(t *testing.T) {
	tr := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	err := Exec(ctx, tr, "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = Exec(ctx, tr, "k", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyFailed)
}

func TestExec_InProgress(t *testing.T) {
	tr := NewMemory()
	ctx := context.Background()

	state, err := tr.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, StateNone, state)

	err = Exec(ctx, tr, "k", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyInProgress)
}

func TestMemoryTracker_Expiry(t *testing.T) {
	now := time.Unix(0, 0)
	tr := NewMemory()
	tr.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, Exec(ctx, tr, "k", func(context.Context) error { return nil }, WithStateTTL(time.Second)))

	now = now.Add(2 * time.Second)
	state, err := tr.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)
}

func TestParseState(t *testing.T) {
	s, err := parseState("completed")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, s)

	_, err = parseState("garbage")
	assert.ErrorIs(t, err, ErrInvalidState)
}
