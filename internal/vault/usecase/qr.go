package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/skip2/go-qrcode"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
)

const defaultQRSize = 256

type QRInput struct {
	ID int64 `validate:"required"`
}

type QROutput struct {
	URI string
	PNG []byte
}

// QR renders the otpauth:// URI of an entry so it can be scanned into another authenticator.
func (s *Usecase) QR(ctx context.Context, in QRInput) (*QROutput, error) {
	ctx, span := s.startSpan(ctx, "QR")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	t, err := s.repoDB.GetTOTP(ctx, in.ID, p.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("TOTP not found or access denied", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get totp", "totp_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, err := s.box.Open(t.Secret, scope(t.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open totp secret", "totp_id", t.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	t.Secret = secret

	cfg, err := otp.Normalize(t.Params())
	if err != nil {
		return nil, goerror.NewBusiness("Stored secret cannot be provisioned", goerror.CodeConflict)
	}

	uri, err := s.provisioner.URI(t.Label, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build provisioning uri", "totp_id", t.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	size := s.cfg.GetInt("vault.qr_size")
	if size <= 0 {
		size = defaultQRSize
	}

	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode qr code", "totp_id", t.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &QROutput{URI: uri, PNG: png}, nil
}
