package uid

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// TokenSize is the number of random bytes behind every bearer token.
const TokenSize = 16

// Token produces opaque random hex strings for bearer credentials.
type Token struct {
	rnd  io.Reader
	size int
}

// NewToken reads from crypto/rand when rnd is nil.
func NewToken(rnd io.Reader) *Token {
	if rnd == nil {
		rnd = rand.Reader
	}
	return &Token{rnd: rnd, size: TokenSize}
}

// Next returns a lower case hex string of 2*TokenSize characters.
func (t *Token) Next() (string, error) {
	buf := make([]byte, t.size)
	if _, err := io.ReadFull(t.rnd, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
