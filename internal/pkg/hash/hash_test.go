package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcrypt(t *testing.T) {
	h := NewBcrypt(4, "pepper")

	hashed, err := h.Hash("pass123")
	require.NoError(t, err)

	assert.True(t, h.Verify(string(hashed), "pass123"))
	assert.False(t, h.Verify(string(hashed), "pass124"))
	assert.False(t, NewBcrypt(4, "other").Verify(string(hashed), "pass123"))
}

func TestArgon2id(t *testing.T) {
	h := NewArgon2id("")

	hashed, err := h.Hash("pass123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hashed), "$argon2id$v=19$"))

	assert.True(t, h.Verify(string(hashed), "pass123"))
	assert.False(t, h.Verify(string(hashed), "nope"))
	assert.False(t, h.Verify("$argon2id$broken", "pass123"))
	assert.False(t, h.Verify("", "pass123"))
}

func TestPassword_VerifiesEitherScheme(t *testing.T) {
	bc := NewPassword("bcrypt", 4, "")
	ar := NewPassword("argon2id", 4, "")

	fromBcrypt, err := bc.Hash("pass123")
	require.NoError(t, err)
	fromArgon, err := ar.Hash("pass123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(fromBcrypt), "$2a$"))
	assert.True(t, strings.HasPrefix(string(fromArgon), "$argon2id$"))

	for _, p := range []*Password{bc, ar} {
		assert.True(t, p.Verify(string(fromBcrypt), "pass123"))
		assert.True(t, p.Verify(string(fromArgon), "pass123"))
		assert.False(t, p.Verify(string(fromArgon), "wrong"))
		assert.False(t, p.Verify("not-a-hash", "pass123"))
	}
}

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256("key")

	sum := h.Sum("c8eeaabf3ef14ffc811cab37ba16753f")
	assert.Len(t, sum, 64)
	assert.Equal(t, sum, h.Sum("c8eeaabf3ef14ffc811cab37ba16753f"))
	assert.NotEqual(t, sum, NewHMACSHA256("other").Sum("c8eeaabf3ef14ffc811cab37ba16753f"))
	assert.True(t, h.Verify(sum, "c8eeaabf3ef14ffc811cab37ba16753f"))
	assert.False(t, h.Verify(sum, "x"))
}

func TestBcrypt_LongPasswordWithPepper(t *testing.T) {
	h := NewBcrypt(4, strings.Repeat("p", 64))
	long := strings.Repeat("a", 72)

	hashed, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Verify(string(hashed), long))
	assert.False(t, h.Verify(string(hashed), long[:71]+"b"))
}
