// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords are stored with Bcrypt or Argon2id and checked through Password,
// which picks the verifier from the stored hash prefix so rows written under
// either scheme keep working after the configured scheme changes.
// HMACSHA256 is a keyed digest used for lookup columns such as bearer tokens.
package hash
