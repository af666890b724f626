package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_ValueScan(t *testing.T) {
	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"color":"blue","n":2}`)))
	assert.Equal(t, "blue", m.GetString("color"))
	assert.InDelta(t, 2.0, m["n"], 0)

	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.Empty(t, m)

	assert.ErrorIs(t, m.Scan(42), ErrScanValueNotBytes)
	assert.Error(t, m.Scan("not json"))
}

func TestJSONMap_Merge(t *testing.T) {
	base := JSONMap{"a": 1, "b": 2}
	got := base.Merge(JSONMap{"b": nil, "c": 3})

	assert.Equal(t, JSONMap{"a": 1, "c": 3}, got)
	assert.Equal(t, JSONMap{"a": 1, "b": 2}, base)
	assert.Equal(t, JSONMap{}, JSONMap(nil).Merge(nil))
}
