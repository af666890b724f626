package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
)

type CreateInput struct {
	Label     string `validate:"required,max=255"`
	Secret    string `validate:"required"`
	Digits    int    `validate:"omitempty,gt=0,lte=10"`
	Period    int    `validate:"omitempty,gt=0,lte=3600"`
	Algorithm string `validate:"otp_algorithm"`
	Encoding  string `validate:"otp_encoding"`
	Icon      *string
	Metadata  valueobject.JSONMap
	Sort      *int32
}

func (s *Usecase) Create(ctx context.Context, in CreateInput) (*entity.TOTP, error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Label = strings.TrimSpace(in.Label)
	in.Secret = strings.TrimSpace(in.Secret)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	t := withDefaults(entity.TOTP{
		ID:        s.uid.Generate(),
		UserID:    p.UserID,
		Label:     in.Label,
		Icon:      in.Icon,
		Metadata:  in.Metadata,
		Sort:      in.Sort,
		Secret:    in.Secret,
		Digits:    in.Digits,
		Period:    in.Period,
		Algorithm: in.Algorithm,
		Encoding:  in.Encoding,
	})
	if err := checkParams(t); err != nil {
		return nil, err
	}

	if err := s.store(ctx, t, s.repoDB.CreateTOTP); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	return &t, nil
}

type UpdateInput struct {
	ID    int64 `validate:"required"`
	Patch entity.TOTPPatch
}

// Update applies a partial change to an entry the caller owns.
func (s *Usecase) Update(ctx context.Context, in UpdateInput) (*entity.TOTP, error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	current, err := s.repoDB.GetTOTP(ctx, in.ID, p.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("TOTP not found or access denied", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get totp", "totp_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	plain, err := s.box.Open(current.Secret, scope(current.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open totp secret", "totp_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	current.Secret = plain

	t := withDefaults(in.Patch.Apply(*current))
	t.Label = strings.TrimSpace(t.Label)
	t.Secret = strings.TrimSpace(t.Secret)
	if err := s.validator.Validate(CreateInput{
		Label:     t.Label,
		Secret:    t.Secret,
		Digits:    t.Digits,
		Period:    t.Period,
		Algorithm: t.Algorithm,
		Encoding:  t.Encoding,
	}); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := checkParams(t); err != nil {
		return nil, err
	}

	err = s.store(ctx, t, s.repoDB.UpdateTOTP)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("TOTP not found or access denied", goerror.CodeNotFound)
	}
	if err != nil {
		return nil, err
	}

	t.UpdatedAt = s.clock.Now()
	return &t, nil
}

type DeleteInput struct {
	ID int64 `validate:"required"`
}

func (s *Usecase) Delete(ctx context.Context, in DeleteInput) error {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err = s.repoDB.DeleteTOTP(ctx, in.ID, p.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("TOTP not found or access denied", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete totp", "totp_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// store seals the secret of t and hands the sealed copy to write.
// goerror.ErrNotFound from write is passed through untouched.
func (s *Usecase) store(ctx context.Context, t entity.TOTP, write func(context.Context, entity.TOTP) error) error {
	sealed, err := s.box.Seal(t.Secret, scope(t.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal totp secret", "totp_id", t.ID, "error", err)
		return goerror.NewServer(err)
	}
	t.Secret = sealed

	err = write(ctx, t)
	if errors.Is(err, goerror.ErrNotFound) {
		return err
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo write totp", "totp_id", t.ID, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}
