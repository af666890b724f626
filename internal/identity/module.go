package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpkeeper/internal/identity/inbound"
	"github.com/shandysiswandi/otpkeeper/internal/identity/outbound/db"
	"github.com/shandysiswandi/otpkeeper/internal/identity/outbound/mq"
	"github.com/shandysiswandi/otpkeeper/internal/identity/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/hash"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/messaging"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	TokenHMAC  *hash.HMACSHA256           `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New wires the module and installs it as the router's authenticator.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbIdentity := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Clock, dep.Instrument)

	tokens := authtoken.New(db.NewTokenStore(dep.DBConn, dep.TokenHMAC, dep.Instrument), authtoken.Options{
		Clock:          dep.Clock,
		IDs:            dep.UID,
		RetainCount:    dep.Config.GetInt("authtoken.retain_count"),
		DefaultTTLDays: dep.Config.GetInt("authtoken.default_ttl_days"),
		MaxAttempts:    dep.Config.GetInt("authtoken.max_attempts"),
	})

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbIdentity,
		RepoMessaging: repoMsg,
		Tokens:        tokens,
		Validator:     dep.Validator,
		Password:      dep.Password,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	dep.Router.SetAuthenticator(uc)

	return nil
}
