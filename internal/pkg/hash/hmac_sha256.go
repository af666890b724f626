package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 is a keyed, deterministic digest rendered as lower case hex.
// Bearer tokens are stored under this digest so a leaked table cannot be
// replayed, yet lookups stay a single indexed equality.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(key string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(key)}
}

func (h *HMACSHA256) mac(s string) []byte {
	m := hmac.New(sha256.New, h.key)
	m.Write([]byte(s))
	return m.Sum(nil)
}

func (h *HMACSHA256) Hash(s string) ([]byte, error) {
	return hex.AppendEncode(nil, h.mac(s)), nil
}

// Sum is Hash as a string.
func (h *HMACSHA256) Sum(s string) string {
	return hex.EncodeToString(h.mac(s))
}

func (h *HMACSHA256) Verify(hashed, s string) bool {
	want, err := hex.DecodeString(hashed)
	return err == nil && hmac.Equal(want, h.mac(s))
}
