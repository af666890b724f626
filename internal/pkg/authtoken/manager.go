package authtoken

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
)

const (
	DefaultRetainCount = 3
	DefaultMaxAttempts = 5
)

// ValueGenerator produces candidate token values.
type ValueGenerator interface {
	Next() (string, error)
}

// Options configures a Manager. Zero fields take the package defaults.
type Options struct {
	Clock          clock.Clocker
	IDs            uid.NumberID
	Values         ValueGenerator
	RetainCount    int
	DefaultTTLDays int
	MaxAttempts    int
}

// Issued is what the caller hands back to the client after a login.
type Issued struct {
	ID        int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager issues, prunes, revokes and resolves bearer tokens.
// It keeps no mutable state of its own and is safe for concurrent use.
type Manager struct {
	store       Store
	clock       clock.Clocker
	ids         uid.NumberID
	values      ValueGenerator
	retain      int
	defaultTTL  int
	maxAttempts uint64
}

// New builds a Manager on store. opts.IDs is required.
func New(store Store, opts Options) *Manager {
	m := &Manager{
		store:       store,
		clock:       opts.Clock,
		ids:         opts.IDs,
		values:      opts.Values,
		retain:      opts.RetainCount,
		defaultTTL:  opts.DefaultTTLDays,
		maxAttempts: DefaultMaxAttempts,
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.values == nil {
		m.values = uid.NewToken(nil)
	}
	if m.retain <= 0 {
		m.retain = DefaultRetainCount
	}
	if m.defaultTTL <= 0 {
		m.defaultTTL = DefaultTTLDays
	}
	if opts.MaxAttempts > 0 {
		m.maxAttempts = uint64(opts.MaxAttempts)
	}
	return m
}

// Issue mints a token for userID and then prunes the user's older unpinned tokens.
//
// A collision is retried with a fresh id and value up to MaxAttempts times.
// Any other store failure is returned wrapped in ErrStorage.
func (m *Manager) Issue(ctx context.Context, userID int64, ttl TTL) (Issued, error) {
	now := m.clock.Now()
	exp := ttl.ExpiresAt(now, m.defaultTTL)
	tok := Token{UserID: userID, CreatedAt: now, ExpiresAt: &exp}

	backoff := retry.WithMaxRetries(m.maxAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		value, err := m.values.Next()
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		tok.ID, tok.Value = m.ids.Generate(), value

		err = m.store.Insert(ctx, tok)
		if errors.Is(err, ErrDuplicate) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return Issued{}, storageErr("insert token", err)
	}

	if err := m.prune(ctx, userID, tok.ID, tok.Value); err != nil {
		return Issued{}, err
	}

	return Issued{ID: tok.ID, Token: tok.Value, CreatedAt: tok.CreatedAt, ExpiresAt: exp}, nil
}

// prune keeps the newest m.retain tokens. When a concurrent issue pushed the
// minted token out of that window it takes the place of the oldest kept one,
// so a finished pass never leaves more than m.retain unpinned tokens.
func (m *Manager) prune(ctx context.Context, userID, mintedID int64, minted string) error {
	keep, err := m.store.RecentIDs(ctx, userID, m.retain)
	if err != nil {
		return storageErr("list recent tokens", err)
	}
	if !slices.Contains(keep, mintedID) {
		if len(keep) >= m.retain {
			keep = keep[:m.retain-1]
		}
		keep = append(keep, mintedID)
	}
	if _, err := m.store.DeleteStale(ctx, userID, keep, minted); err != nil {
		return storageErr("delete stale tokens", err)
	}
	return nil
}

// Revoke deletes token. Revoking an unknown token succeeds.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil && !errors.Is(err, ErrNotFound) {
		return storageErr("delete token", err)
	}
	return nil
}

// Resolve returns the owner of token when it exists and has not expired at now.
// A missing or expired token yields ok == false with a nil error.
func (m *Manager) Resolve(ctx context.Context, token string, now time.Time) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	tok, err := m.store.Find(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("find token", err)
	}

	if !tok.Valid(now) {
		return 0, false, nil
	}
	return tok.UserID, true, nil
}

func storageErr(op string, err error) error {
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
