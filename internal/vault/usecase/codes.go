package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
)

// Codes generates the current code of every entry the caller owns.
// Anonymous callers get an empty list. An entry that cannot be generated
// carries its error instead of failing the others.
func (s *Usecase) Codes(ctx context.Context) ([]entity.Code, error) {
	ctx, span := s.startSpan(ctx, "Codes")
	defer span.End()

	p, ok := authtoken.PrincipalFrom(ctx)
	if !ok {
		return []entity.Code{}, nil
	}

	rows, err := s.repoDB.ListTOTPs(ctx, p.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list totps", "user_id", p.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	codes := make([]entity.Code, len(rows))
	for i, row := range rows {
		codes[i] = entity.Code{ID: row.ID, Label: row.Label, Icon: row.Icon}

		secret, err := s.box.Open(row.Secret, scope(row.UserID))
		if err != nil {
			slog.WarnContext(ctx, "failed to open totp secret", "totp_id", row.ID, "error", err)
			codes[i].Err = err
			continue
		}
		row.Secret = secret

		codes[i].Result, codes[i].Err = otp.Generate(row.Params(), now)
	}

	return codes, nil
}

type GenerateItem struct {
	Label     string `validate:"omitempty,max=255"`
	Secret    string `validate:"required,min=10"`
	Digits    int    `validate:"omitempty,gt=0"`
	Period    int    `validate:"omitempty,gt=0"`
	Algorithm string `validate:"otp_algorithm"`
	Encoding  string `validate:"otp_encoding"`
}

type GenerateInput struct {
	Items []GenerateItem `validate:"required,min=1,max=50,dive"`
}

type GenerateOutput struct {
	Label  string
	Result otp.Result
	Err    error
}

// Generate computes codes for caller supplied parameters without storing anything.
// The whole payload is validated first; after that each item succeeds or fails on its own.
func (s *Usecase) Generate(ctx context.Context, in GenerateInput) ([]GenerateOutput, error) {
	_, span := s.startSpan(ctx, "Generate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	params := make([]otp.Params, len(in.Items))
	for i, item := range in.Items {
		params[i] = otp.Params{
			Secret:    item.Secret,
			Encoding:  item.Encoding,
			Algorithm: item.Algorithm,
			Digits:    item.Digits,
			Period:    item.Period,
		}
	}

	results := otp.GenerateBatch(params, s.clock.Now())

	out := make([]GenerateOutput, len(results))
	for i, r := range results {
		out[i] = GenerateOutput{Label: in.Items[i].Label, Result: r.Result, Err: r.Err}
	}

	return out, nil
}
