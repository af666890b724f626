package otp

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // RFC 4226 mandates SHA-1 as the baseline
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"strconv"
	"strings"
	"time"
)

// Result is one generated code together with the window it belongs to.
type Result struct {
	Code      string
	Digits    int
	Period    int
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// BatchResult holds the outcome for one item of GenerateBatch.
type BatchResult struct {
	Result Result
	Err    error
}

var pow10 = [...]uint32{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000}

func hasher(a Algorithm) func() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New
	case SHA384:
		return sha512.New384
	case SHA512:
		return sha512.New
	default:
		return sha1.New
	}
}

// HOTP computes the RFC 4226 value for counter. A digits value outside 1..8
// yields a DefaultDigits code.
func HOTP(key []byte, counter uint64, digits int, alg Algorithm) string {
	if digits < 1 || digits >= len(pow10) {
		digits = DefaultDigits
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(hasher(alg), key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	p := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	code := strconv.FormatUint(uint64(p%pow10[digits]), 10)
	if pad := digits - len(code); pad > 0 {
		code = strings.Repeat("0", pad) + code
	}
	return code
}

// Counter returns the time step containing at. Instants before the epoch map to step 0.
func (c Config) Counter(at time.Time) uint64 {
	sec := at.Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec) / uint64(c.period)
}

// Generate computes the code for the window containing at.
func (c Config) Generate(at time.Time) Result {
	counter := c.Counter(at)
	return Result{
		Code:      HOTP(c.key, counter, c.digits, c.algorithm),
		Digits:    c.digits,
		Period:    c.period,
		IssuedAt:  at,
		ExpiresAt: time.Unix(int64(counter+1)*int64(c.period), 0).In(at.Location()),
	}
}

// Generate resolves p and computes the code for at.
func Generate(p Params, at time.Time) (Result, error) {
	cfg, err := Normalize(p)
	if err != nil {
		return Result{}, err
	}
	return cfg.Generate(at), nil
}

// GenerateBatch runs Generate for every item. A rejected item only affects its own slot.
func GenerateBatch(items []Params, at time.Time) []BatchResult {
	out := make([]BatchResult, len(items))
	for i, p := range items {
		out[i].Result, out[i].Err = Generate(p, at)
	}
	return out
}
