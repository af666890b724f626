package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
app:
  server:
    cors: "https://a.example, ,https://b.example"
  rate_limit:
    window_seconds: 60
authtoken:
  default_ttl_days: 365
vault:
  secret_key: "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="
messaging:
  topics: "issued:identity.token.issued,revoked:identity.token.revoked"
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(fixture))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, 60*time.Second, cfg.GetSecond("app.rate_limit.window_seconds"))
	assert.Equal(t, 365*24*time.Hour, cfg.GetDay("authtoken.default_ttl_days"))
	assert.Len(t, cfg.GetBinary("vault.secret_key"), 32)
	assert.Equal(t, map[string]string{
		"issued":  "identity.token.issued",
		"revoked": "identity.token.revoked",
	}, cfg.GetMap("messaging.topics"))

	assert.Nil(t, cfg.GetArray("missing.key"))
	assert.Nil(t, cfg.GetBinary("missing.key"))
	assert.NoError(t, cfg.Close())
}

func TestViperFromBytesRequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", nil)
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestViperEnvOverride(t *testing.T) {
	t.Setenv("AUTHTOKEN_DEFAULT_TTL_DAYS", "7")

	cfg, err := NewViperFromBytes("yaml", []byte(fixture))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.GetInt("authtoken.default_ttl_days"))
}
