package otp

import (
	"net/url"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioner_NewSecretRoundTrip(t *testing.T) {
	p := NewProvisioner("otpkeeper", 0)

	secret, err := p.NewSecret("demo@email.com")
	require.NoError(t, err)

	key, err := DecodeBase32(secret)
	require.NoError(t, err)
	assert.Len(t, key, 20)

	at := time.Unix(1_700_000_000, 0)
	want, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)
	got, err := Generate(Params{Secret: secret, Encoding: "base32"}, at)
	require.NoError(t, err)
	assert.Equal(t, want, got.Code)
}

func TestProvisioner_URI(t *testing.T) {
	p := NewProvisioner("", 0)

	cfg, err := Normalize(Params{Secret: "JBSWY3DPEHPK3PXP", Encoding: "base32", Digits: 8, Period: 60, Algorithm: "SHA-256"})
	require.NoError(t, err)

	raw, err := p.URI("GitHub", cfg)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)

	q := u.Query()
	assert.Equal(t, "JBSWY3DPEHPK3PXP", q.Get("secret"))
	assert.Equal(t, "SHA256", q.Get("algorithm"))
	assert.Equal(t, "8", q.Get("digits"))
	assert.Equal(t, "60", q.Get("period"))
	assert.Equal(t, "otpkeeper", q.Get("issuer"))
}

func TestProvisioner_URISHA384(t *testing.T) {
	p := NewProvisioner("acme", 0)
	cfg, err := Normalize(Params{Secret: "abcdefghij", Algorithm: "SHA-384"})
	require.NoError(t, err)

	raw, err := p.URI("label", cfg)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "SHA384", u.Query().Get("algorithm"))
}

func TestProvisioner_MissingAccount(t *testing.T) {
	p := NewProvisioner("acme", 0)
	_, err := p.NewSecret("")
	assert.ErrorIs(t, err, ErrMissingAccount)
}
