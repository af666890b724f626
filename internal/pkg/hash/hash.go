package hash

import "strings"

// Hash hashes plaintext and verifies plaintext against a stored hash.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// Password hashes with primary and verifies with whichever scheme wrote the hash.
type Password struct {
	primary  Hash
	bcrypt   *Bcrypt
	argon2id *Argon2id
}

// NewPassword selects the scheme for new hashes by name: "argon2id" or anything else for bcrypt.
func NewPassword(scheme string, bcryptCost int, pepper string) *Password {
	p := &Password{
		bcrypt:   NewBcrypt(bcryptCost, pepper),
		argon2id: NewArgon2id(pepper),
	}
	p.primary = p.bcrypt
	if strings.EqualFold(scheme, "argon2id") {
		p.primary = p.argon2id
	}
	return p
}

func (p *Password) Hash(plaintext string) ([]byte, error) {
	return p.primary.Hash(plaintext)
}

func (p *Password) Verify(hashed, plaintext string) bool {
	if strings.HasPrefix(hashed, "$argon2id$") {
		return p.argon2id.Verify(hashed, plaintext)
	}
	return p.bcrypt.Verify(hashed, plaintext)
}
