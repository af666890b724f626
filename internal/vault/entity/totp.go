package entity

import (
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
)

const (
	DefaultDigits = otp.DefaultDigits
	DefaultPeriod = otp.DefaultPeriod
)

// TOTP is one stored authenticator entry. Secret holds the plaintext once loaded by the usecase.
type TOTP struct {
	ID        int64
	UserID    int64
	Label     string
	Icon      *string
	Metadata  valueobject.JSONMap
	Sort      *int32
	Secret    string
	Digits    int
	Period    int
	Algorithm string
	Encoding  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Params is the loose engine input for the entry.
func (t TOTP) Params() otp.Params {
	return otp.Params{
		Secret:    t.Secret,
		Encoding:  t.Encoding,
		Algorithm: t.Algorithm,
		Digits:    t.Digits,
		Period:    t.Period,
	}
}

// TOTPPatch carries the fields of a partial update; nil leaves the field alone.
type TOTPPatch struct {
	Label     *string
	Secret    *string
	Digits    *int
	Period    *int
	Algorithm *string
	Encoding  *string
	Icon      *string
	Metadata  valueobject.JSONMap
	Sort      *int32
}

// Apply returns t with every set field of p replaced.
func (p TOTPPatch) Apply(t TOTP) TOTP {
	if p.Label != nil {
		t.Label = *p.Label
	}
	if p.Secret != nil {
		t.Secret = *p.Secret
	}
	if p.Digits != nil {
		t.Digits = *p.Digits
	}
	if p.Period != nil {
		t.Period = *p.Period
	}
	if p.Algorithm != nil {
		t.Algorithm = *p.Algorithm
	}
	if p.Encoding != nil {
		t.Encoding = *p.Encoding
	}
	if p.Icon != nil {
		t.Icon = p.Icon
	}
	if p.Metadata != nil {
		t.Metadata = p.Metadata
	}
	if p.Sort != nil {
		t.Sort = p.Sort
	}
	return t
}

// Code is a generated value for one entry, or the reason it could not be generated.
type Code struct {
	ID     int64
	Label  string
	Icon   *string
	Result otp.Result
	Err    error
}
