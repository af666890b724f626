package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CollectsErrorsAndPanics(t *testing.T) {
	m := NewManager(4)
	boom := errors.New("boom")

	require.True(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	require.True(t, m.Go(context.Background(), func(context.Context) error { return boom }))
	require.True(t, m.Go(context.Background(), func(context.Context) error { panic("bad") }))

	err := m.Wait()
	assert.ErrorIs(t, err, boom)

	s := m.Stats()
	assert.Equal(t, int64(3), s.Started)
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(1), s.Panicked)
}

func TestManager_LimitAndClose(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})

	require.True(t, m.Go(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))
	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))

	close(release)
	require.NoError(t, m.Wait())

	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, int64(2), m.Stats().Skipped)
}

func TestManager_Nil(t *testing.T) {
	var m *Manager
	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	assert.NoError(t, m.Wait())
}
