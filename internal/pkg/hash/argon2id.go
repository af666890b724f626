package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id implements Hash with the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$key).
//
// Each derivation allocates memory KiB, so only cap(slots) run at once and
// further callers wait.
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	pepper      string
	slots       chan struct{}
}

// NewArgon2id uses 32 MiB, 3 passes and 2 lanes, with two concurrent derivations.
func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		memory:      32 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
		pepper:      pepper,
		slots:       make(chan struct{}, 2),
	}
}

func (a *Argon2id) derive(plaintext string, salt []byte, t, m uint32, p uint8, keyLen uint32) []byte {
	a.slots <- struct{}{}
	defer func() { <-a.slots }()

	return argon2.IDKey([]byte(plaintext+a.pepper), salt, t, m, p, keyLen)
}

func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: argon2id salt: %w", err)
	}

	key := a.derive(str, salt, a.iterations, a.memory, a.parallelism, a.keyLength)

	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.memory, a.iterations, a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives with the parameters stored in hashed, so hashes written
// with older settings keep verifying.
func (a *Argon2id) Verify(hashed, str string) bool {
	if str == "" {
		return false
	}

	enc, ok := parseArgon2id(hashed)
	if !ok {
		return false
	}

	got := a.derive(str, enc.salt, enc.iterations, enc.memory, enc.parallelism, uint32(len(enc.key)))
	return subtle.ConstantTimeCompare(enc.key, got) == 1
}

type argon2idHash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2id(s string) (argon2idHash, bool) {
	var h argon2idHash

	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return h, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return h, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.iterations, &h.parallelism); err != nil {
		return h, false
	}
	if h.memory == 0 || h.iterations == 0 || h.parallelism == 0 {
		return h, false
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, false
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return h, false
	}
	return h, true
}
