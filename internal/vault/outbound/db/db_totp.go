package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
)

const selectTOTP = `SELECT id, user_id, label, icon, metadata, sort, secret, digits, period,
	COALESCE(algorithm, ''), COALESCE(encoding, ''), created_at, updated_at FROM totps`

const insertTOTP = `INSERT INTO totps
	(id, user_id, label, icon, metadata, sort, secret, digits, period, algorithm, encoding)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''))`

func scanTOTP(row pgx.Row) (entity.TOTP, error) {
	var t entity.TOTP
	err := row.Scan(
		&t.ID, &t.UserID, &t.Label, &t.Icon, &t.Metadata, &t.Sort, &t.Secret,
		&t.Digits, &t.Period, &t.Algorithm, &t.Encoding, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func insertArgs(t entity.TOTP) []any {
	return []any{
		t.ID, t.UserID, t.Label, t.Icon, t.Metadata, t.Sort, t.Secret,
		t.Digits, t.Period, t.Algorithm, t.Encoding,
	}
}

func (s *DB) ListTOTPs(ctx context.Context, userID int64) (_ []entity.TOTP, err error) {
	ctx, span := s.startSpan(ctx, "ListTOTPs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, selectTOTP+` WHERE user_id = $1 ORDER BY sort ASC NULLS LAST, id ASC`, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.TOTP, error) {
		return scanTOTP(row)
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return out, nil
}

func (s *DB) GetTOTP(ctx context.Context, id, userID int64) (_ *entity.TOTP, err error) {
	ctx, span := s.startSpan(ctx, "GetTOTP")
	defer func() { s.endSpan(span, err) }()

	t, err := scanTOTP(s.conn.QueryRow(ctx, selectTOTP+` WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, s.mapError(err)
	}
	return &t, nil
}

func (s *DB) CreateTOTP(ctx context.Context, t entity.TOTP) (err error) {
	ctx, span := s.startSpan(ctx, "CreateTOTP")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, insertTOTP, insertArgs(t)...)
	return s.mapError(err)
}

// CreateTOTPs inserts every row or none.
func (s *DB) CreateTOTPs(ctx context.Context, ts []entity.TOTP) (err error) {
	ctx, span := s.startSpan(ctx, "CreateTOTPs")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	batch := &pgx.Batch{}
	for _, t := range ts {
		batch.Queue(insertTOTP, insertArgs(t)...)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) UpdateTOTP(ctx context.Context, t entity.TOTP) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateTOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE totps SET label = $3, icon = $4, metadata = $5, sort = $6, secret = $7, digits = $8,
		 period = $9, algorithm = NULLIF($10, ''), encoding = NULLIF($11, ''), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		insertArgs(t)...,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) DeleteTOTP(ctx context.Context, id, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteTOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM totps WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
