package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

type RevokeInput struct {
	Token string `validate:"required"`
}

// Revoke deletes a token. Unknown tokens succeed so the call can be repeated safely.
func (s *Usecase) Revoke(ctx context.Context, in RevokeInput) error {
	ctx, span := s.startSpan(ctx, "Revoke")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	// the owner is only needed for the event; an unresolvable token is still revoked
	userID, ok, err := s.tokens.Resolve(ctx, in.Token, s.clock.Now())
	if err != nil {
		slog.WarnContext(ctx, "failed to resolve token before revoke", "error", err)
	}

	if err := s.tokens.Revoke(ctx, in.Token); err != nil {
		slog.ErrorContext(ctx, "failed to revoke auth token", "error", err)
		return goerror.NewServer(err)
	}

	if ok {
		if err := s.repoMessaging.PublishTokenRevoked(ctx, TokenRevokedEvent{UserID: userID}); err != nil {
			slog.ErrorContext(ctx, "failed to publish token revoked", "user_id", userID, "error", err)
		}
	}

	return nil
}
