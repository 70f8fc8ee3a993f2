// Package sqlite opens SQLite databases through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	sqlitedrv "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

// LowerFunc is the SQL name of a Unicode-aware LOWER. The builtin only folds ASCII.
const LowerFunc = "unicode_lower"

func init() {
	sqlitedrv.MustRegisterDeterministicScalarFunction(LowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlitedrv.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", LowerFunc, v)
	}
}

type options struct {
	busyTimeout time.Duration
}

type Option func(*options)

// WithBusyTimeout sets how long a connection waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// DSN builds a modernc DSN for path with the pragmas every connection needs.
func DSN(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")

	return "file:" + path + "?" + q.Encode()
}

// Open opens (or creates) the database at path.
// The pool is capped at one connection: SQLite serializes writers anyway.
func Open(ctx context.Context, path string, opts ...Option) (*sqlx.DB, error) {
	const op = "sqlite.Open"

	o := options{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", DSN(path, o.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}
