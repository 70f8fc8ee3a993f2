// Package postgres opens PostgreSQL connection pools through the pgx stdlib driver
// and applies embedded migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultConnMaxLifetime = 30 * time.Minute
	defaultMaxIdleConns    = 5
	defaultMaxOpenConns    = 25
	defaultConnectAttempts = 5
	defaultRetryDelay      = time.Second
)

type options struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
	attempts        int
	retryDelay      time.Duration
}

func defaultOptions() options {
	return options{
		connMaxIdleTime: defaultConnMaxIdleTime,
		connMaxLifetime: defaultConnMaxLifetime,
		maxIdleConns:    defaultMaxIdleConns,
		maxOpenConns:    defaultMaxOpenConns,
		attempts:        defaultConnectAttempts,
		retryDelay:      defaultRetryDelay,
	}
}

type Option func(*options)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connMaxIdleTime = d
		}
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connMaxLifetime = d
		}
	}
}

func WithMaxIdleConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIdleConns = n
		}
	}
}

func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithConnectRetry retries the initial connection, for databases that start
// after the service does.
func WithConnectRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if delay > 0 {
			o.retryDelay = delay
		}
	}
}

// New connects to dsn and configures the pool.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := connect(ctx, dsn, o.attempts, o.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetConnMaxIdleTime(o.connMaxIdleTime)
	db.SetConnMaxLifetime(o.connMaxLifetime)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetMaxOpenConns(o.maxOpenConns)

	return db, nil
}

func connect(ctx context.Context, dsn string, attempts int, delay time.Duration) (*sqlx.DB, error) {
	var lastErr error

	for i := 0; i < attempts; i++ {
		db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
