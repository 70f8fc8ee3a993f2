// Package app wires configuration, storage, use cases and the HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlinks/internal/adapter/repository/cache"
	"github.com/vadimbarashkov/shortlinks/internal/codegen"
	"github.com/vadimbarashkov/shortlinks/internal/config"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"github.com/vadimbarashkov/shortlinks/internal/metrics"
	"github.com/vadimbarashkov/shortlinks/internal/usecase"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/vadimbarashkov/shortlinks/internal/adapter/delivery/http"
)

const (
	serviceName     = "shortlinks"
	shutdownTimeout = 10 * time.Second
)

// lookupStore is what the shortener and resolver need; the cache layer provides it too.
type lookupStore interface {
	Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error)
	Find(ctx context.Context, code string) (*entity.URL, error)
	IncrementVisits(ctx context.Context, code string) error
}

func NewLogger(cfg *config.Config) *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:        cfg.Log.SlogLevel(),
		JSON:            cfg.Log.JSON,
		Concise:         cfg.Env == config.EnvDev,
		Tags:            map[string]string{"env": cfg.Env},
		QuietDownRoutes: []string{"/health", "/metrics"},
		QuietDownPeriod: 10 * time.Second,
	})
}

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeStore()

	logger.InfoContext(ctx, "storage ready", slog.String("driver", cfg.Storage.Driver))

	handler, closeHandler, err := newHandler(ctx, cfg, store, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeHandler()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(ctx, "starting server", slog.String("addr", server.Addr))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		logger.InfoContext(ctx, "server stopped")
		return nil
	})

	return g.Wait()
}

// newHandler builds the use cases over store and the router serving them.
// The returned func drains background visit increments and releases the
// optional Redis client.
func newHandler(ctx context.Context, cfg *config.Config, store urlStore, logger *httplog.Logger) (http.Handler, func() error, error) {
	const op = "app.newHandler"

	gen, err := codegen.New(cfg.Shortener.CodeLength)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to create code generator: %w", op, err)
	}

	closer := func() error { return nil }

	var lookup lookupStore = store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closer = client.Close

		if err := client.Ping(ctx).Err(); err != nil {
			logger.WarnContext(ctx, "redis is unreachable, lookups fall back to storage", slog.Any("err", err))
		}

		lookup = cache.NewURLRepository(client, store, logger.Logger,
			cache.WithTTL(cfg.Redis.TTL),
			cache.WithKeyPrefix(cfg.Redis.Prefix),
		)
	}

	m := metrics.New()

	shortener := usecase.NewShortener(lookup, gen,
		usecase.WithMaxRetries(cfg.Shortener.MaxRetries),
		usecase.WithShortenRecorder(m),
	)
	resolver := usecase.NewResolver(lookup, logger.Logger,
		usecase.WithStrictVisits(cfg.Visits.Strict),
		usecase.WithVisitTimeout(cfg.Visits.Timeout),
		usecase.WithVisitFailureRecorder(m),
	)
	query := usecase.NewQuery(store)

	router := myhttp.NewRouter(
		logger,
		myhttp.NewAuthenticator(cfg.Auth.JWTSecret),
		myhttp.Services{
			Shortener: shortener,
			Resolver:  resolver,
			Query:     query,
		},
		myhttp.WithMetrics(m),
		myhttp.WithBaseURL(cfg.HTTPServer.BaseURL),
	)

	release := func() error {
		resolver.Wait()
		return closer()
	}

	return router, release, nil
}
