package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
	identitydb "github.com/shandysiswandi/otpkeeper/internal/identity/outbound/db"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/hash"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/secretbox"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	vaultentity "github.com/shandysiswandi/otpkeeper/internal/vault/entity"
	vaultdb "github.com/shandysiswandi/otpkeeper/internal/vault/outbound/db"
)

const (
	demoName     = "Demo"
	demoEmail    = "demo@email.com"
	demoPassword = "pass123"
	demoToken    = "c8eeaabf3ef14ffc811cab37ba16753f"
	demoLabel    = "Demo"
	demoSecret   = "JBSWY3DPEHPK3PXP"
)

var demoTokenExpiry = time.Date(2099, time.December, 31, 23, 59, 59, 0, time.UTC)

type userRepo interface {
	ExistsUserByEmail(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user entity.NewUser) error
	DeleteUserByEmail(ctx context.Context, email string) (int64, error)
}

type totpRepo interface {
	CreateTOTP(ctx context.Context, t vaultentity.TOTP) error
}

type demo struct {
	ins      instrument.Instrumentation
	ids      uid.NumberID
	password hash.Hash
	digest   identitydb.Digester
	box      *secretbox.Box
	now      time.Time
}

func (d demo) seed(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	return d.run(ctx,
		identitydb.NewDB(pool, d.ins),
		identitydb.NewTokenStore(pool, d.digest, d.ins),
		vaultdb.NewDB(pool, d.ins),
	)
}

// run creates the demo user, its pinned token and one base32 secret. It
// reports false when the user already exists. A partial seed is rolled back
// by deleting the user, which cascades.
func (d demo) run(ctx context.Context, users userRepo, tokens authtoken.Store, totps totpRepo) (_ bool, err error) {
	exists, err := users.ExistsUserByEmail(ctx, demoEmail)
	if err != nil {
		return false, fmt.Errorf("check demo user: %w", err)
	}
	if exists {
		return false, nil
	}

	hashed, err := d.password.Hash(demoPassword)
	if err != nil {
		return false, fmt.Errorf("hash demo password: %w", err)
	}

	userID := d.ids.Generate()
	if err := users.CreateUser(ctx, entity.NewUser{
		ID:       userID,
		Name:     demoName,
		Email:    demoEmail,
		Password: string(hashed),
		Role:     entity.RoleDemo,
	}); err != nil {
		return false, fmt.Errorf("create demo user: %w", err)
	}

	defer func() {
		if err != nil {
			_, _ = users.DeleteUserByEmail(context.WithoutCancel(ctx), demoEmail)
		}
	}()

	expiresAt := demoTokenExpiry
	if err = tokens.Insert(ctx, authtoken.Token{
		ID:        d.ids.Generate(),
		UserID:    userID,
		Value:     demoToken,
		Keep:      true,
		CreatedAt: d.now,
		ExpiresAt: &expiresAt,
	}); err != nil {
		return false, fmt.Errorf("insert demo token: %w", err)
	}

	secret, err := d.box.Seal(demoSecret, secretbox.Scope{UserID: userID, Purpose: secretbox.PurposeTOTPSecret})
	if err != nil {
		return false, fmt.Errorf("seal demo secret: %w", err)
	}

	if err = totps.CreateTOTP(ctx, vaultentity.TOTP{
		ID:        d.ids.Generate(),
		UserID:    userID,
		Label:     demoLabel,
		Secret:    secret,
		Digits:    otp.DefaultDigits,
		Period:    otp.DefaultPeriod,
		Algorithm: string(otp.SHA1),
		Encoding:  string(otp.EncodingBase32),
		CreatedAt: d.now,
		UpdatedAt: d.now,
	}); err != nil {
		return false, fmt.Errorf("create demo totp: %w", err)
	}

	return true, nil
}
