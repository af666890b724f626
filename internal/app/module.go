package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpkeeper/internal/activity"
	"github.com/shandysiswandi/otpkeeper/internal/identity"
	"github.com/shandysiswandi/otpkeeper/internal/vault"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			TokenHMAC:  a.tokenHMAC,
			Password:   a.password,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.vault.enabled") {
		if err := vault.New(vault.Dependency{
			DBConn:      a.dbConn,
			Router:      a.router,
			Messaging:   a.messaging,
			Storage:     a.storage,
			Idempotency: a.idemp,
			Box:         a.box,
			Provisioner: a.provisioner,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module vault", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.activity.enabled") {
		if err := activity.New(activity.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module activity", "error", err)
			os.Exit(1)
		}
	}
}
