package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/activity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
)

type RecordInput struct {
	UserID     int64       `validate:"required,gt=0"`
	Kind       entity.Kind `validate:"required"`
	Data       valueobject.JSONMap
	OccurredAt time.Time
}

// Record stores one event. Malformed events and events of users that no longer
// exist are dropped without error so the broker does not redeliver them.
func (s *Usecase) Record(ctx context.Context, in RecordInput) error {
	ctx, span := s.startSpan(ctx, "Record")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "drop invalid activity", "kind", in.Kind, "error", err)
		return nil
	}

	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.clock.Now()
	}

	err := s.repoDB.CreateActivity(ctx, entity.Activity{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		Kind:       in.Kind,
		Data:       in.Data.Clone(),
		OccurredAt: in.OccurredAt,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "drop activity of unknown user", "user_id", in.UserID, "kind", in.Kind)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create activity", "user_id", in.UserID, "kind", in.Kind, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
