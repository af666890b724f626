package authtoken

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicate is returned by Store.Insert when the token value already exists.
	ErrDuplicate = errors.New("authtoken: duplicate token")

	// ErrNotFound is returned by Store.Find when no row matches.
	ErrNotFound = errors.New("authtoken: token not found")

	// ErrStorage wraps every other failure coming out of the Store.
	ErrStorage = errors.New("authtoken: storage failure")
)

// Token is one persisted bearer credential.
type Token struct {
	ID        int64
	UserID    int64
	Value     string
	Keep      bool
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Valid reports whether t can still authenticate at now.
func (t Token) Valid(now time.Time) bool {
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}

// Store is the persistence the Manager depends on.
type Store interface {
	// Insert persists t, returning ErrDuplicate when Value is taken.
	Insert(ctx context.Context, t Token) error

	// RecentIDs returns up to limit token ids of userID, newest first.
	// Ties on created_at are broken by id, which grows with insertion order.
	RecentIDs(ctx context.Context, userID int64, limit int) ([]int64, error)

	// DeleteStale removes the unpinned tokens of userID whose id is not in
	// keepIDs and whose value is not exclude, in one statement.
	DeleteStale(ctx context.Context, userID int64, keepIDs []int64, exclude string) (int64, error)

	// Delete removes the token with value. A missing row is not an error.
	Delete(ctx context.Context, value string) error

	// Find loads the token with value or returns ErrNotFound.
	Find(ctx context.Context, value string) (Token, error)
}
