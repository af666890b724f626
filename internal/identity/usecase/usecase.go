package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/hash"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type UserRegisteredEvent struct {
	UserID int64
	Email  string
	Name   string
}

type TokenIssuedEvent struct {
	UserID    int64
	TokenID   int64
	ExpiresAt time.Time
}

type TokenRevokedEvent struct {
	UserID int64
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
	PublishTokenIssued(ctx context.Context, msg TokenIssuedEvent) error
	PublishTokenRevoked(ctx context.Context, msg TokenRevokedEvent) error
}

type repoDB interface {
	GetUserCredential(ctx context.Context, email string) (*entity.UserCredential, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	ExistsUserByEmail(ctx context.Context, email string) (bool, error)
	GetSessions(ctx context.Context, userID int64) ([]entity.Session, error)

	CreateUser(ctx context.Context, user entity.NewUser) error
}

type tokenManager interface {
	Issue(ctx context.Context, userID int64, ttl authtoken.TTL) (authtoken.Issued, error)
	Revoke(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string, now time.Time) (int64, bool, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	tokens        tokenManager
	validator     validator.Validator
	password      hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Tokens        tokenManager
	Validator     validator.Validator
	Password      hash.Hash
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		tokens:        dep.Tokens,
		validator:     dep.Validator,
		password:      dep.Password,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (authtoken.Principal, error) {
	p, ok := authtoken.PrincipalFrom(ctx)
	if !ok {
		return authtoken.Principal{}, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return p, nil
}
