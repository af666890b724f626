package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpkeeper/internal/activity/entity"
)

func (s *DB) CreateActivity(ctx context.Context, a entity.Activity) (err error) {
	ctx, span := s.startSpan(ctx, "CreateActivity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO activities (id, user_id, kind, data, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.UserID, a.Kind.String(), a.Data, a.OccurredAt,
	)
	return s.mapError(err)
}

func (s *DB) ListActivities(ctx context.Context, userID int64, limit int32) (_ []entity.Activity, err error) {
	ctx, span := s.startSpan(ctx, "ListActivities")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT id, user_id, kind, data, occurred_at FROM activities
		 WHERE user_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Activity, error) {
		var a entity.Activity
		var kind string
		if err := row.Scan(&a.ID, &a.UserID, &kind, &a.Data, &a.OccurredAt); err != nil {
			return a, err
		}
		a.Kind = entity.Kind(kind)
		return a, nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return items, nil
}
