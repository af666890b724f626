package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpkeeper/internal/activity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

const defaultListLimit int32 = 50

type ListInput struct {
	Limit int32 `validate:"omitempty,gt=0,lte=200"`
}

// List returns the caller's events, newest first.
func (s *Usecase) List(ctx context.Context, in ListInput) ([]entity.Activity, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	p, ok := authtoken.PrincipalFrom(ctx)
	if !ok {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.Limit == 0 {
		in.Limit = defaultListLimit
	}

	items, err := s.repoDB.ListActivities(ctx, p.UserID, in.Limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list activities", "user_id", p.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if items == nil {
		items = []entity.Activity{}
	}

	return items, nil
}
