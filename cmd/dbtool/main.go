// dbtool manages the database outside the service: schema migrations and the demo account.
//
//	dbtool migrate -direction up|down
//	dbtool seed
//	dbtool cleanup
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	identitydb "github.com/shandysiswandi/otpkeeper/internal/identity/outbound/db"
	"github.com/shandysiswandi/otpkeeper/internal/migration"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/hash"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/secretbox"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
)

const usage = `usage: dbtool <command> [flags]

commands:
  migrate -direction up|down   apply or roll back the embedded schema
  seed                         create the demo account, its pinned token and a sample secret
  cleanup                      delete the demo account and everything it owns`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}
	defer cfg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "migrate":
		err = runMigrate(cfg, args)
	case "seed":
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error { return seed(ctx, cfg, pool) })
	case "cleanup":
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error { return cleanup(ctx, pool) })
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("dbtool failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return config.NewViper(path)
}

func runMigrate(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	direction := fs.String("direction", migration.DirectionUp, "migration direction: up or down")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := migration.Run(cfg.GetString("database.url"), *direction); err != nil {
		return err
	}
	slog.Info("migration finished", "direction", *direction)
	return nil
}

func withPool(ctx context.Context, cfg config.Config, fn func(*pgxpool.Pool) error) error {
	pool, err := pgxpool.New(ctx, cfg.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return fn(pool)
}

func seed(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) error {
	snow, err := uid.NewSnowflake()
	if err != nil {
		return err
	}

	box, err := secretbox.New(secretbox.KeyFromString(cfg.GetString("vault.secret_key")))
	if err != nil {
		return err
	}

	cost := cfg.GetInt("hash.bcrypt.cost")
	if cost == 0 {
		cost = 10
	}

	d := demo{
		ins:      instrument.NewNoop(),
		ids:      snow,
		password: hash.NewPassword(cfg.GetString("hash.password.scheme"), cost, cfg.GetString("hash.password.pepper")),
		digest:   hash.NewHMACSHA256(cfg.GetString("hash.hmac.secret")),
		box:      box,
		now:      time.Now().UTC(),
	}

	seeded, err := d.seed(ctx, pool)
	if err != nil {
		return err
	}
	if !seeded {
		slog.Info("demo account already exists, nothing to seed", "email", demoEmail)
		return nil
	}
	slog.Info("demo account seeded", "email", demoEmail)
	return nil
}

func cleanup(ctx context.Context, pool *pgxpool.Pool) error {
	n, err := identitydb.NewDB(pool, instrument.NewNoop()).DeleteUserByEmail(ctx, demoEmail)
	if err != nil {
		return err
	}
	slog.Info("demo account removed", "email", demoEmail, "rows", n)
	return nil
}
