package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/secretbox"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/validator"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
	"go.opentelemetry.io/otel/trace"
)

type ExportCreatedEvent struct {
	UserID   int64
	Count    int
	Snapshot string
}

type repoMessaging interface {
	PublishExportCreated(ctx context.Context, msg ExportCreatedEvent) error
}

type repoDB interface {
	ListTOTPs(ctx context.Context, userID int64) ([]entity.TOTP, error)
	GetTOTP(ctx context.Context, id, userID int64) (*entity.TOTP, error)

	CreateTOTP(ctx context.Context, t entity.TOTP) error
	CreateTOTPs(ctx context.Context, ts []entity.TOTP) error
	UpdateTOTP(ctx context.Context, t entity.TOTP) error
	DeleteTOTP(ctx context.Context, id, userID int64) error
}

type sealer interface {
	Seal(plaintext string, scope secretbox.Scope) (string, error)
	Open(stored string, scope secretbox.Scope) (string, error)
}

type provisioner interface {
	URI(account string, cfg otp.Config) (string, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Tracker
	storage       storage.Storage
	box           sealer
	provisioner   provisioner
	validator     validator.Validator
	cfg           config.Config
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Tracker
	Storage       storage.Storage
	Box           sealer
	Provisioner   provisioner
	Validator     validator.Validator
	Config        config.Config
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		storage:       dep.Storage,
		box:           dep.Box,
		provisioner:   dep.Provisioner,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("vault.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (authtoken.Principal, error) {
	p, ok := authtoken.PrincipalFrom(ctx)
	if !ok {
		return authtoken.Principal{}, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return p, nil
}

func scope(userID int64) secretbox.Scope {
	return secretbox.Scope{UserID: userID, Purpose: secretbox.PurposeTOTPSecret}
}

// open replaces the stored secret of every entry with its plaintext.
func (s *Usecase) open(ctx context.Context, ts []entity.TOTP) error {
	for i := range ts {
		plain, err := s.box.Open(ts[i].Secret, scope(ts[i].UserID))
		if err != nil {
			slog.ErrorContext(ctx, "failed to open totp secret", "totp_id", ts[i].ID, "error", err)
			return err
		}
		ts[i].Secret = plain
	}
	return nil
}

// checkParams rejects an entry whose secret the engine cannot use.
func checkParams(t entity.TOTP) error {
	if _, err := otp.Normalize(t.Params()); err != nil {
		var perr *otp.ParamError
		if errors.As(err, &perr) {
			return goerror.NewInvalidInput(nil, perr.Field, perr.Reason)
		}
		return goerror.NewInvalidInput(err)
	}
	return nil
}

func withDefaults(t entity.TOTP) entity.TOTP {
	if t.Digits == 0 {
		t.Digits = entity.DefaultDigits
	}
	if t.Period == 0 {
		t.Period = entity.DefaultPeriod
	}
	return t
}
