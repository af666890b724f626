package db

import (
	"context"

	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
)

func (s *DB) GetUserCredential(ctx context.Context, email string) (_ *entity.UserCredential, err error) {
	ctx, span := startSpan(ctx, s.ins, "GetUserCredential")
	defer func() { endSpan(span, err) }()

	var out entity.UserCredential
	var role string
	err = s.conn.QueryRow(ctx,
		`SELECT id, name, email, password, role FROM users WHERE email = $1`,
		email,
	).Scan(&out.ID, &out.Name, &out.Email, &out.Password, &role)
	if err != nil {
		return nil, mapError(err)
	}

	out.Role = entity.Role(role).Ensure()
	return &out, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := startSpan(ctx, s.ins, "GetUserByID")
	defer func() { endSpan(span, err) }()

	var out entity.User
	var role string
	err = s.conn.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&out.ID, &out.Name, &out.Email, &role, &out.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	out.Role = entity.Role(role).Ensure()
	return &out, nil
}

func (s *DB) ExistsUserByEmail(ctx context.Context, email string) (_ bool, err error) {
	ctx, span := startSpan(ctx, s.ins, "ExistsUserByEmail")
	defer func() { endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, mapError(err)
}

func (s *DB) CreateUser(ctx context.Context, user entity.NewUser) (err error) {
	ctx, span := startSpan(ctx, s.ins, "CreateUser")
	defer func() { endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO users (id, name, email, password, role) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, user.Email, user.Password, user.Role.Ensure().String(),
	)
	return mapError(err)
}

func (s *DB) GetSessions(ctx context.Context, userID int64) (_ []entity.Session, err error) {
	ctx, span := startSpan(ctx, s.ins, "GetSessions")
	defer func() { endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT id, keep, created_at, expires_at FROM auth_tokens
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	sessions := make([]entity.Session, 0)
	for rows.Next() {
		var se entity.Session
		if err = rows.Scan(&se.ID, &se.Keep, &se.CreatedAt, &se.ExpiresAt); err != nil {
			return nil, mapError(err)
		}
		sessions = append(sessions, se)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return sessions, nil
}

// DeleteUserByEmail removes the user; tokens and stored secrets go with it through the foreign keys.
func (s *DB) DeleteUserByEmail(ctx context.Context, email string) (_ int64, err error) {
	ctx, span := startSpan(ctx, s.ins, "DeleteUserByEmail")
	defer func() { endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
