package sqlite

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

// RunMigrations applies the migrations found in fsys to db.
func RunMigrations(db *sqlx.DB, fsys fs.FS) error {
	const op = "sqlite.RunMigrations"

	src, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("%s: failed to open migration source: %w", op, err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("%s: failed to create migration driver: %w", op, err)
	}

	// m is not closed: closing it would close db.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}
