package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
)

type ImportItem struct {
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

type ImportInput struct {
	// IdempotencyKey, when set, makes a repeated request fail instead of inserting twice.
	IdempotencyKey string       `validate:"omitempty,max=128"`
	TOTPs          []ImportItem `validate:"required,min=1,max=500,dive"`
}

type ImportOutput struct {
	TOTPs []entity.TOTP
}

// Import inserts every item in one transaction; a single invalid item rejects the whole payload.
func (s *Usecase) Import(ctx context.Context, in ImportInput) (*ImportOutput, error) {
	ctx, span := s.startSpan(ctx, "Import")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	for i := range in.TOTPs {
		in.TOTPs[i].Label = strings.TrimSpace(in.TOTPs[i].Label)
		in.TOTPs[i].Secret = strings.TrimSpace(in.TOTPs[i].Secret)
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	plain := make([]entity.TOTP, len(in.TOTPs))
	sealed := make([]entity.TOTP, len(in.TOTPs))
	now := s.clock.Now()
	for i, item := range in.TOTPs {
		t := withDefaults(entity.TOTP{
			ID:        s.uid.Generate(),
			UserID:    p.UserID,
			Label:     item.Label,
			Icon:      item.Icon,
			Metadata:  item.Metadata,
			Sort:      item.Sort,
			Secret:    item.Secret,
			Digits:    item.Digits,
			Period:    item.Period,
			Algorithm: item.Algorithm,
			Encoding:  item.Encoding,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err := checkParams(t); err != nil {
			return nil, indexed(err, i)
		}
		plain[i] = t

		t.Secret, err = s.box.Seal(t.Secret, scope(t.UserID))
		if err != nil {
			slog.ErrorContext(ctx, "failed to seal totp secret", "user_id", p.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
		sealed[i] = t
	}

	insert := func(ctx context.Context) error {
		return s.repoDB.CreateTOTPs(ctx, sealed)
	}

	if in.IdempotencyKey == "" {
		err = insert(ctx)
	} else {
		key := "vault:import:" + strconv.FormatInt(p.UserID, 10) + ":" + in.IdempotencyKey
		err = idempotency.Exec(ctx, s.idemp, key, insert)
	}

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		return nil, goerror.NewBusiness("Import with this Idempotency-Key was already processed", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("Import with this Idempotency-Key is in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		return nil, goerror.NewBusiness("Import with this Idempotency-Key failed, retry with a new key", goerror.CodeConflict)
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo import totps", "user_id", p.UserID, "count", len(sealed), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ImportOutput{TOTPs: plain}, nil
}

// indexed prefixes the field names of a validation error with the item position.
func indexed(err error, i int) error {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || len(gerr.Fields()) == 0 {
		return err
	}
	fields := make(map[string]string, len(gerr.Fields()))
	for k, v := range gerr.Fields() {
		fields["totps["+strconv.Itoa(i)+"]."+k] = v
	}
	return goerror.NewInvalidFields(fields)
}
