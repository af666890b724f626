package uid

import (
	"bytes"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_Unique(t *testing.T) {
	g, err := NewSnowflake()
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{})
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				id := g.Generate()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 4000)
}

func TestToken_Next(t *testing.T) {
	tok, err := NewToken(nil).Next()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), tok)

	fixed := NewToken(bytes.NewReader(bytes.Repeat([]byte{0xab}, TokenSize)))
	tok, err = fixed.Next()
	require.NoError(t, err)
	assert.Equal(t, "abababababababababababababababab", tok)

	_, err = fixed.Next()
	assert.Error(t, err)
}

func TestUUID_Generate(t *testing.T) {
	u := NewUUID()
	assert.NotEqual(t, u.Generate(), u.Generate())
	assert.Len(t, u.Generate(), 36)
}
