package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	TTL      authtoken.TTL
	ShowUser bool
}

type LoginOutput struct {
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	User      *entity.User
}

// Login checks the password and mints a bearer token. The same flow serves the token endpoint.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	user, err := s.repoDB.GetUserCredential(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", email)
		return nil, goerror.NewBusiness("Invalid credentials", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user credential", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("Invalid credentials", goerror.CodeUnauthorized)
	}

	issued, err := s.tokens.Issue(ctx, user.ID, in.TTL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue auth token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishTokenIssued(ctx, TokenIssuedEvent{
		UserID:    user.ID,
		TokenID:   issued.ID,
		ExpiresAt: issued.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish token issued", "user_id", user.ID, "error", err)
	}

	out := &LoginOutput{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		CreatedAt: issued.CreatedAt,
	}
	if in.ShowUser {
		out.User = &entity.User{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
	}

	return out, nil
}
