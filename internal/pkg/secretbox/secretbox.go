// Package secretbox seals short secrets with AES-256-GCM so they can be stored
// in a text column. The ciphertext is bound to a Scope, so a value copied to
// another user's row or another purpose no longer opens.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PurposeTOTPSecret scopes seeds of stored authenticator entries.
const PurposeTOTPSecret = "totp_secret"

// Scope is authenticated alongside the ciphertext.
type Scope struct {
	UserID  int64
	Purpose string
}

// Ciphertext format (binary, then base64 behind textPrefix):
// [0..1]   uint16 version (currently 1)
// [2..13]  12-byte nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const (
	version      uint16 = 1
	gcmNonceSize        = 12
	aesKeyLen           = 32
	textPrefix          = "enc:v1:"
)

var (
	ErrPlaintextEmpty     = errors.New("secretbox: plaintext is empty")
	ErrInvalidKeyLength   = errors.New("secretbox: invalid key length")
	ErrCiphertextTooShort = errors.New("secretbox: ciphertext too short")
	ErrUnsupportedVersion = errors.New("secretbox: unsupported ciphertext version")
	ErrDecryptFailed      = errors.New("secretbox: decrypt failed")
)

// Box seals and opens secrets. A Box without a key stores plaintext.
type Box struct {
	gcm cipher.AEAD
}

// New builds a Box for a 32 byte key. An empty key yields a pass-through Box.
func New(key []byte) (*Box, error) {
	if len(key) == 0 {
		return &Box{}, nil
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("secretbox: key is %d bytes, want %d: %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes init failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: gcm init failed: %w", err)
	}
	return &Box{gcm: gcm}, nil
}

// Enabled reports whether Seal encrypts.
func (b *Box) Enabled() bool { return b != nil && b.gcm != nil }

// Seal returns the text form of plaintext for scope.
func (b *Box) Seal(plaintext string, scope Scope) (string, error) {
	if plaintext == "" {
		return "", ErrPlaintextEmpty
	}
	if !b.Enabled() {
		return plaintext, nil
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce generation failed: %w", err)
	}

	sealed := b.gcm.Seal(nil, nonce, []byte(plaintext), scopeAAD(scope))

	out := make([]byte, 2+gcmNonceSize+len(sealed))
	binary.BigEndian.PutUint16(out[0:2], version)
	copy(out[2:2+gcmNonceSize], nonce)
	copy(out[2+gcmNonceSize:], sealed)

	return textPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Values without the sealed prefix are returned unchanged,
// which keeps seeded and legacy plaintext rows readable.
func (b *Box) Open(stored string, scope Scope) (string, error) {
	enc, ok := strings.CutPrefix(stored, textPrefix)
	if !ok {
		return stored, nil
	}
	if !b.Enabled() {
		return "", ErrDecryptFailed
	}

	raw, err := base64.RawStdEncoding.DecodeString(enc)
	if err != nil {
		return "", ErrDecryptFailed
	}
	if len(raw) < 2+gcmNonceSize+1 {
		return "", ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(raw[0:2]); v != version {
		return "", fmt.Errorf("secretbox: version %d: %w", v, ErrUnsupportedVersion)
	}

	plain, err := b.gcm.Open(nil, raw[2:2+gcmNonceSize], raw[2+gcmNonceSize:], scopeAAD(scope))
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}

// scopeAAD hashes a labelled canonical form so the AAD has a fixed length and no separator ambiguity.
func scopeAAD(s Scope) []byte {
	canonical := fmt.Sprintf("uid=%d\npurpose=%s\n", s.UserID, s.Purpose)
	sum := sha256.Sum256([]byte(canonical))
	return sum[:]
}

// KeyFromString accepts a 32 byte key as base64 or raw text. Empty input gives a nil key.
func KeyFromString(s string) []byte {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if k, err := base64.StdEncoding.DecodeString(s); err == nil && len(k) == aesKeyLen {
		return k
	}
	return []byte(s)
}
