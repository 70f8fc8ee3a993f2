package app

import (
	"context"
	"fmt"

	"github.com/vadimbarashkov/shortlinks/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlinks/internal/config"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"github.com/vadimbarashkov/shortlinks/migrations"
	"github.com/vadimbarashkov/shortlinks/pkg/postgres"
	"github.com/vadimbarashkov/shortlinks/pkg/sqlite"

	postgresrepo "github.com/vadimbarashkov/shortlinks/internal/adapter/repository/postgres"
	sqliterepo "github.com/vadimbarashkov/shortlinks/internal/adapter/repository/sqlite"
)

type urlStore interface {
	Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error)
	Find(ctx context.Context, code string) (*entity.URL, error)
	IncrementVisits(ctx context.Context, code string) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.URL, error)
	SearchByOwner(ctx context.Context, ownerID, substr string) ([]entity.URL, error)
}

// newStore opens the configured backend and brings its schema up to date.
// The returned func releases the backend.
func newStore(ctx context.Context, cfg *config.Config) (urlStore, func() error, error) {
	const op = "app.newStore"

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
			postgres.WithConnectRetry(cfg.Postgres.ConnectAttempts, cfg.Postgres.ConnectDelay),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		if err := postgres.RunMigrations(migrations.Postgres(), cfg.Postgres.DSN()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return postgresrepo.NewURLRepository(db), db.Close, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path, sqlite.WithBusyTimeout(cfg.SQLite.BusyTimeout))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to open database: %w", op, err)
		}

		if err := sqlite.RunMigrations(db, migrations.SQLite()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return sqliterepo.NewURLRepository(db), db.Close, nil

	case config.DriverMemory:
		return memory.NewURLRepository(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Storage.Driver)
	}
}
