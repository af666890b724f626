package otp

import (
	"strings"
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rfcSeed20 = "12345678901234567890"
	rfcSeed32 = "12345678901234567890123456789012"
	rfcSeed64 = "1234567890123456789012345678901234567890123456789012345678901234"
)

func TestHOTP_RFC4226(t *testing.T) {
	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}
	for counter, code := range want {
		assert.Equal(t, code, HOTP([]byte(rfcSeed20), uint64(counter), 6, SHA1), "counter %d", counter)
	}
}

func TestHOTP_OutOfRangeDigits(t *testing.T) {
	key := []byte(rfcSeed20)
	want := HOTP(key, 0, DefaultDigits, SHA1)

	for _, digits := range []int{-1, 0, 9, 42} {
		assert.NotPanics(t, func() {
			assert.Equal(t, want, HOTP(key, 0, digits, SHA1), "digits %d", digits)
		})
	}
	assert.Equal(t, "4", HOTP(key, 0, 1, SHA1))
	assert.Len(t, HOTP(key, 0, 8, SHA1), 8)
}

func TestGenerate_RFC6238(t *testing.T) {
	tests := []struct {
		at     int64
		sha1   string
		sha256 string
		sha512 string
	}{
		{59, "94287082", "46119246", "90693936"},
		{1111111109, "07081804", "68084774", "25091201"},
		{1111111111, "14050471", "67062674", "99943326"},
		{1234567890, "89005924", "91819424", "93441116"},
		{2000000000, "69279037", "90698825", "38618901"},
		{20000000000, "65353130", "77737706", "47863826"},
	}

	for _, tt := range tests {
		at := time.Unix(tt.at, 0).UTC()
		for _, c := range []struct {
			alg    string
			secret string
			want   string
		}{
			{"SHA-1", rfcSeed20, tt.sha1},
			{"SHA-256", rfcSeed32, tt.sha256},
			{"SHA-512", rfcSeed64, tt.sha512},
		} {
			res, err := Generate(Params{Secret: c.secret, Algorithm: c.alg, Digits: 8, Period: 30}, at)
			require.NoError(t, err)
			assert.Equal(t, c.want, res.Code, "%s at %d", c.alg, tt.at)
		}
	}
}

func TestGenerate_KnownAnswer(t *testing.T) {
	res, err := Generate(Params{Secret: rfcSeed20, Encoding: "ascii", Algorithm: "SHA-1", Digits: 8, Period: 30}, time.Unix(59, 0))
	require.NoError(t, err)

	assert.Equal(t, "94287082", res.Code)
	assert.Equal(t, int64(60), res.ExpiresAt.Unix())
	assert.Equal(t, int64(59), res.IssuedAt.Unix())
	assert.Equal(t, 8, res.Digits)
	assert.Equal(t, 30, res.Period)
}

func TestNormalize_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		in         Params
		wantAlg    Algorithm
		wantDigits int
		wantPeriod int
	}{
		{"all unset", Params{Secret: "s"}, SHA1, 6, 30},
		{"period too short", Params{Secret: "s", Period: 5}, SHA1, 6, 30},
		{"period too long", Params{Secret: "s", Period: 120}, SHA1, 6, 30},
		{"period lower bound", Params{Secret: "s", Period: 15}, SHA1, 6, 15},
		{"period upper bound", Params{Secret: "s", Period: 60}, SHA1, 6, 60},
		{"negative period", Params{Secret: "s", Period: -30}, SHA1, 6, 30},
		{"digits 7", Params{Secret: "s", Digits: 7}, SHA1, 7, 30},
		{"digits 8", Params{Secret: "s", Digits: 8}, SHA1, 8, 30},
		{"digits 5", Params{Secret: "s", Digits: 5}, SHA1, 6, 30},
		{"digits 10", Params{Secret: "s", Digits: 10}, SHA1, 6, 30},
		{"unknown algorithm", Params{Secret: "s", Algorithm: "MD5"}, SHA1, 6, 30},
		{"lower case algorithm", Params{Secret: "s", Algorithm: " sha-256 "}, SHA256, 6, 30},
		{"sha-384", Params{Secret: "s", Algorithm: "SHA-384"}, SHA384, 6, 30},
		{"sha-512", Params{Secret: "s", Algorithm: "SHA-512"}, SHA512, 6, 30},
		{"dashless algorithm", Params{Secret: "s", Algorithm: "SHA256"}, SHA1, 6, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlg, cfg.Algorithm())
			assert.Equal(t, tt.wantDigits, cfg.Digits())
			assert.Equal(t, tt.wantPeriod, cfg.Period())
		})
	}
}

func TestNormalize_Secret(t *testing.T) {
	tests := []struct {
		name    string
		in      Params
		wantKey []byte
		wantErr bool
	}{
		{"empty", Params{}, nil, true},
		{"blank", Params{Secret: "   "}, nil, true},
		{"ascii trimmed", Params{Secret: " abc "}, []byte("abc"), false},
		{"unknown encoding is ascii", Params{Secret: "abc", Encoding: "utf7"}, []byte("abc"), false},
		{"hex", Params{Secret: "48656c6c6f", Encoding: "HEX"}, []byte("Hello"), false},
		{"hex odd length", Params{Secret: "abc", Encoding: "hex"}, nil, true},
		{"hex bad digit", Params{Secret: "zz", Encoding: "hex"}, nil, true},
		{"base32", Params{Secret: "JBSWY3DPEHPK3PXP", Encoding: "base32"}, []byte("Hello!\xde\xad\xbe\xef"), false},
		{"base32 lower spaced", Params{Secret: "jbsw y3dp ehpk 3pxp", Encoding: "base32"}, []byte("Hello!\xde\xad\xbe\xef"), false},
		{"base32 invalid", Params{Secret: "1111", Encoding: "base32"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Normalize(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				var pe *ParamError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "secret", pe.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, cfg.Key())
		})
	}
}

func TestGenerate_Properties(t *testing.T) {
	secrets := []Params{
		{Secret: "JBSWY3DPEHPK3PXP", Encoding: "base32"},
		{Secret: "3132333435363738393031323334353637383930", Encoding: "hex", Algorithm: "SHA-384", Digits: 7, Period: 45},
		{Secret: "a short ascii key", Algorithm: "SHA-512", Digits: 8, Period: 15},
	}
	instants := []int64{0, 1, 29, 30, 59, 1700000000, 1700000029, 4102444799}

	for _, p := range secrets {
		for _, sec := range instants {
			at := time.Unix(sec, 0)
			a, err := Generate(p, at)
			require.NoError(t, err)
			b, err := Generate(p, at)
			require.NoError(t, err)

			assert.Equal(t, a, b)
			assert.Len(t, a.Code, a.Digits)
			assert.Empty(t, strings.Trim(a.Code, "0123456789"))

			exp := a.ExpiresAt.Unix()
			assert.Zero(t, exp%int64(a.Period))
			assert.Greater(t, exp, sec)
			assert.LessOrEqual(t, exp-sec, int64(a.Period))
		}
	}
}

func TestGenerate_SameWindowSameCode(t *testing.T) {
	p := Params{Secret: rfcSeed20, Period: 30}
	a, err := Generate(p, time.Unix(1_700_000_010, 0))
	require.NoError(t, err)
	b, err := Generate(p, time.Unix(1_700_000_019, 0))
	require.NoError(t, err)
	c, err := Generate(p, time.Unix(1_700_000_040, 0))
	require.NoError(t, err)

	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.ExpiresAt, b.ExpiresAt)
	assert.Equal(t, a.ExpiresAt.Add(30*time.Second), c.ExpiresAt)
}

func TestGenerate_SHA384DiffersFromSHA1(t *testing.T) {
	at := time.Unix(59, 0)
	sha1Res, err := Generate(Params{Secret: rfcSeed20, Digits: 8}, at)
	require.NoError(t, err)
	sha384Res, err := Generate(Params{Secret: rfcSeed20, Digits: 8, Algorithm: "SHA-384"}, at)
	require.NoError(t, err)

	assert.Len(t, sha384Res.Code, 8)
	assert.NotEqual(t, sha1Res.Code, sha384Res.Code)
}

func TestGenerate_MatchesLibrary(t *testing.T) {
	const seed = "JBSWY3DPEHPK3PXP"
	at := time.Unix(1_700_000_000, 0)

	for _, c := range []struct {
		alg    string
		libAlg pqotp.Algorithm
		digits int
	}{
		{"SHA-1", pqotp.AlgorithmSHA1, 6},
		{"SHA-256", pqotp.AlgorithmSHA256, 8},
		{"SHA-512", pqotp.AlgorithmSHA512, 6},
	} {
		want, err := totp.GenerateCodeCustom(seed, at, totp.ValidateOpts{
			Period:    30,
			Digits:    pqotp.Digits(c.digits),
			Algorithm: c.libAlg,
		})
		require.NoError(t, err)

		got, err := Generate(Params{Secret: seed, Encoding: "base32", Algorithm: c.alg, Digits: c.digits}, at)
		require.NoError(t, err)
		assert.Equal(t, want, got.Code, c.alg)
	}
}

func TestGenerateBatch_IndependentItems(t *testing.T) {
	at := time.Unix(59, 0)
	out := GenerateBatch([]Params{
		{Secret: rfcSeed20, Digits: 8},
		{Secret: ""},
		{Secret: "zz", Encoding: "hex"},
		{Secret: rfcSeed20, Digits: 6},
	}, at)

	require.Len(t, out, 4)
	assert.NoError(t, out[0].Err)
	assert.Equal(t, "94287082", out[0].Result.Code)
	assert.ErrorIs(t, out[1].Err, ErrInvalidParameter)
	assert.ErrorIs(t, out[2].Err, ErrInvalidParameter)
	assert.NoError(t, out[3].Err)
	assert.Equal(t, "287082", out[3].Result.Code)
}

func TestCounter_BeforeEpoch(t *testing.T) {
	cfg, err := Normalize(Params{Secret: rfcSeed20})
	require.NoError(t, err)
	assert.Zero(t, cfg.Counter(time.Unix(-100, 0)))
}
