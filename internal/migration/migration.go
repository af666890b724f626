// Package migration applies the embedded SQL schema with golang-migrate.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

var (
	ErrEmptyDSN         = errors.New("migration: database url is required")
	ErrInvalidDirection = errors.New("migration: direction must be up or down")
)

// Files exposes the embedded migrations.
func Files() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Run applies every migration in direction against dsn. A schema that is
// already at the target version is not an error.
func Run(dsn, direction string) error {
	if dsn == "" {
		return ErrEmptyDSN
	}
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("%w: got %q", ErrInvalidDirection, direction)
	}

	src, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("migration: source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, driverURL(dsn))
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == DirectionUp {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: %s: %w", direction, err)
	}
	return nil
}

// driverURL points golang-migrate at its pgx v5 driver.
func driverURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}
