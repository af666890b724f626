package entity

import (
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
)

type Kind string

const (
	KindUserRegistered Kind = "user.registered"
	KindTokenIssued    Kind = "token.issued"
	KindTokenRevoked   Kind = "token.revoked"
	KindExportCreated  Kind = "export.created"
)

func (k Kind) String() string {
	return string(k)
}

// Activity is one recorded security event of a user.
type Activity struct {
	ID         int64
	UserID     int64
	Kind       Kind
	Data       valueobject.JSONMap
	OccurredAt time.Time
}
