package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

const defaultVisitTimeout = 2 * time.Second

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStrictVisits makes Resolve count the visit before returning and fail when
// the increment fails. By default the increment runs in the background and
// never delays or fails a resolution.
func WithStrictVisits(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithVisitTimeout bounds the visit increment.
func WithVisitTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.visitTimeout = d
		}
	}
}

// WithVisitFailureRecorder reports best-effort increment failures to rec.
func WithVisitFailureRecorder(rec VisitFailureRecorder) ResolverOption {
	return func(r *Resolver) {
		r.failures = rec
	}
}

// Resolver looks up short codes and records visits.
type Resolver struct {
	repo         resolveRepository
	logger       *slog.Logger
	strict       bool
	visitTimeout time.Duration
	failures     VisitFailureRecorder
	inflight     sync.WaitGroup
}

// NewResolver creates a Resolver reading from and counting visits in repo.
func NewResolver(repo resolveRepository, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		repo:         repo,
		logger:       logger,
		visitTimeout: defaultVisitTimeout,
		failures:     nopRecorder{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the long URL for code and counts one visit.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	const op = "usecase.Resolver.Resolve"

	if !wellFormedCode(code) {
		return "", fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url, err := r.repo.Find(ctx, code)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			return "", fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return "", fmt.Errorf("%s: failed to find url: %w", op, err)
	}

	if r.strict {
		if err := r.countVisit(ctx, code); err != nil {
			return "", fmt.Errorf("%s: failed to count visit: %w", op, err)
		}
		return url.LongURL, nil
	}

	ctx = context.WithoutCancel(ctx)

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		if err := r.countVisit(ctx, code); err != nil {
			r.failures.IncVisitFailure()
			r.logger.WarnContext(ctx, "failed to count visit",
				slog.String("op", op),
				slog.String("code", code),
				slog.Any("err", err),
			)
		}
	}()

	return url.LongURL, nil
}

// Wait blocks until every background visit increment has finished.
func (r *Resolver) Wait() {
	r.inflight.Wait()
}

// countVisit is detached from the caller's cancellation so that a client
// hanging up right after the lookup still gets its visit counted.
func (r *Resolver) countVisit(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.visitTimeout)
	defer cancel()

	return r.repo.IncrementVisits(ctx, code)
}
