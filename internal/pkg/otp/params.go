package otp

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Algorithm names the HMAC digest used for code generation.
type Algorithm string

const (
	SHA1   Algorithm = "SHA-1"
	SHA256 Algorithm = "SHA-256"
	SHA384 Algorithm = "SHA-384"
	SHA512 Algorithm = "SHA-512"
)

// Encoding names how a stored secret string turns into key bytes.
type Encoding string

const (
	EncodingASCII  Encoding = "ascii"
	EncodingHex    Encoding = "hex"
	EncodingBase32 Encoding = "base32"
)

const (
	DefaultDigits    = 6
	DefaultPeriod    = 30
	DefaultAlgorithm = SHA1

	MinPeriod = 15
	MaxPeriod = 60
)

// Algorithms lists the accepted algorithm names in their canonical spelling.
var Algorithms = []Algorithm{SHA1, SHA256, SHA384, SHA512}

// Encodings lists the accepted encoding tags.
var Encodings = []Encoding{EncodingASCII, EncodingHex, EncodingBase32}

// ErrInvalidParameter is the root of every parameter rejection.
var ErrInvalidParameter = errors.New("otp: invalid parameter")

// ParamError names the field that made the parameters unusable.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("otp: invalid %s: %s", e.Field, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

// Params is the loosely typed input as it arrives from requests and rows.
// Zero values mean "use the default".
type Params struct {
	Secret    string
	Encoding  string
	Algorithm string
	Digits    int
	Period    int
}

// Config is a fully resolved parameter set. It can only be obtained from
// Normalize, so every default has been applied before any hashing happens.
type Config struct {
	key       []byte
	algorithm Algorithm
	digits    int
	period    int
}

func (c Config) Key() []byte          { return append([]byte(nil), c.key...) }
func (c Config) Algorithm() Algorithm { return c.algorithm }
func (c Config) Digits() int          { return c.digits }
func (c Config) Period() int          { return c.period }

// Normalize resolves p into a Config.
//
// Unsupported digits, period or algorithm values fall back to their defaults
// without error. Only the secret can be rejected: when it is blank or does not
// decode under its encoding.
func Normalize(p Params) (Config, error) {
	secret := strings.TrimSpace(p.Secret)
	if secret == "" {
		return Config{}, &ParamError{Field: "secret", Reason: "must not be empty"}
	}

	key, err := decodeSecret(secret, ParseEncoding(p.Encoding))
	if err != nil {
		return Config{}, err
	}

	return Config{
		key:       key,
		algorithm: ParseAlgorithm(p.Algorithm),
		digits:    resolveDigits(p.Digits),
		period:    resolvePeriod(p.Period),
	}, nil
}

// ParseAlgorithm matches s case-insensitively, falling back to SHA-1.
func ParseAlgorithm(s string) Algorithm {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, a := range Algorithms {
		if string(a) == s {
			return a
		}
	}
	return DefaultAlgorithm
}

// ParseEncoding matches s case-insensitively, falling back to ascii.
func ParseEncoding(s string) Encoding {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range Encodings {
		if string(e) == s {
			return e
		}
	}
	return EncodingASCII
}

func resolveDigits(d int) int {
	if d >= 6 && d <= 8 {
		return d
	}
	return DefaultDigits
}

func resolvePeriod(p int) int {
	if p >= MinPeriod && p <= MaxPeriod {
		return p
	}
	return DefaultPeriod
}

func decodeSecret(secret string, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingHex:
		key, err := hex.DecodeString(secret)
		if err != nil {
			return nil, &ParamError{Field: "secret", Reason: "not valid hex"}
		}
		return key, nil
	case EncodingBase32:
		key, err := DecodeBase32(secret)
		if err != nil || len(key) == 0 {
			return nil, &ParamError{Field: "secret", Reason: "not valid base32"}
		}
		return key, nil
	default:
		return []byte(secret), nil
	}
}

// DecodeBase32 accepts the forms authenticator apps hand out: lower case,
// grouped with spaces or dashes, with or without padding.
func DecodeBase32(s string) ([]byte, error) {
	s = strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(s))
	s = strings.TrimRight(s, "=")
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
}
