package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

func (s *Usecase) UserInfo(ctx context.Context) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "UserInfo")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByID(ctx, p.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", p.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}

func (s *Usecase) Sessions(ctx context.Context) ([]entity.Session, error) {
	ctx, span := s.startSpan(ctx, "Sessions")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.repoDB.GetSessions(ctx, p.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get sessions", "user_id", p.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return sessions, nil
}
