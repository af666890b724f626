package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
)

// Digester turns a presented token into the value stored in token_hash.
type Digester interface {
	Sum(str string) string
}

// TokenStore persists auth tokens for authtoken.Manager.
// Only the keyed digest of a token reaches the database.
type TokenStore struct {
	conn   *pgxpool.Pool
	digest Digester
	ins    instrument.Instrumentation
}

func NewTokenStore(conn *pgxpool.Pool, digest Digester, ins instrument.Instrumentation) *TokenStore {
	return &TokenStore{conn: conn, digest: digest, ins: ins}
}

// Insert reports a clash on either id or token_hash as authtoken.ErrDuplicate;
// the manager retries with both regenerated.
func (s *TokenStore) Insert(ctx context.Context, t authtoken.Token) (err error) {
	ctx, span := startSpan(ctx, s.ins, "TokenStore.Insert")
	defer func() { endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO auth_tokens (id, user_id, token_hash, expires_at, keep, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, s.digest.Sum(t.Value), t.ExpiresAt, t.Keep, t.CreatedAt,
	)
	if isUniqueViolation(err) {
		return authtoken.ErrDuplicate
	}
	return err
}

func (s *TokenStore) RecentIDs(ctx context.Context, userID int64, limit int) (_ []int64, err error) {
	ctx, span := startSpan(ctx, s.ins, "TokenStore.RecentIDs")
	defer func() { endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT id FROM auth_tokens WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (s *TokenStore) DeleteStale(ctx context.Context, userID int64, keepIDs []int64, exclude string) (_ int64, err error) {
	ctx, span := startSpan(ctx, s.ins, "TokenStore.DeleteStale")
	defer func() { endSpan(span, err) }()

	if keepIDs == nil {
		keepIDs = []int64{}
	}

	tag, err := s.conn.Exec(ctx,
		`DELETE FROM auth_tokens
		 WHERE user_id = $1 AND keep = FALSE AND NOT (id = ANY($2)) AND token_hash <> $3`,
		userID, keepIDs, s.digest.Sum(exclude),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *TokenStore) Delete(ctx context.Context, value string) (err error) {
	ctx, span := startSpan(ctx, s.ins, "TokenStore.Delete")
	defer func() { endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM auth_tokens WHERE token_hash = $1`, s.digest.Sum(value))
	return err
}

func (s *TokenStore) Find(ctx context.Context, value string) (_ authtoken.Token, err error) {
	ctx, span := startSpan(ctx, s.ins, "TokenStore.Find")
	defer func() { endSpan(span, err) }()

	t := authtoken.Token{Value: value}
	err = s.conn.QueryRow(ctx,
		`SELECT id, user_id, keep, created_at, expires_at FROM auth_tokens WHERE token_hash = $1`,
		s.digest.Sum(value),
	).Scan(&t.ID, &t.UserID, &t.Keep, &t.CreatedAt, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return authtoken.Token{}, authtoken.ErrNotFound
	}
	if err != nil {
		return authtoken.Token{}, err
	}
	return t, nil
}
