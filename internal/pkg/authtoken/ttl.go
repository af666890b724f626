package authtoken

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTLDays applies when the caller did not ask for a lifetime.
	DefaultTTLDays = 365

	// MinTTLDays replaces any requested lifetime that is not a positive number.
	MinTTLDays = 1

	// MaxTTLDays caps a requested lifetime so the expiry stays a representable
	// timestamp (roughly 2700 years).
	MaxTTLDays = 1_000_000
)

// TTL is a requested token lifetime in days.
// The zero value means the caller did not ask for one.
type TTL struct {
	days int
	set  bool
}

// DefaultTTL is the absent lifetime.
func DefaultTTL() TTL { return TTL{} }

// TTLOf is a lifetime the caller asked for explicitly.
func TTLOf(days int) TTL { return TTL{days: days, set: true} }

// ParseTTL reads a lifetime from free text. Blank text is absent;
// anything else that is not an integer becomes MinTTLDays.
func ParseTTL(s string) TTL {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTTL()
	}
	d, err := strconv.Atoi(s)
	if err != nil {
		return TTLOf(0)
	}
	return TTLOf(d)
}

// Days resolves the lifetime against def, the value used when absent.
func (t TTL) Days(def int) int {
	if !t.set {
		if def <= 0 {
			return DefaultTTLDays
		}
		return def
	}
	return min(max(t.days, MinTTLDays), MaxTTLDays)
}

// ExpiresAt adds the resolved lifetime to from in calendar days.
func (t TTL) ExpiresAt(from time.Time, def int) time.Time {
	return from.AddDate(0, 0, t.Days(def))
}
