package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt implements Hash with bcrypt.
//
// With a pepper, the input is first reduced to base64(HMAC-SHA256(pepper, p)),
// which keeps it under bcrypt's 72 byte limit whatever the pepper length.
type Bcrypt struct {
	cost   int
	pepper []byte
}

// NewBcrypt uses bcrypt.DefaultCost for a zero cost and otherwise clamps it
// into bcrypt's accepted range.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b := &Bcrypt{cost: min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)}
	if pepper != "" {
		b.pepper = []byte(pepper)
	}
	return b
}

func (b *Bcrypt) input(plaintext string) []byte {
	if b.pepper == nil {
		return []byte(plaintext)
	}
	mac := hmac.New(sha256.New, b.pepper)
	mac.Write([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func (b *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(b.input(plaintext), b.cost)
}

func (b *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), b.input(plaintext)) == nil
}
