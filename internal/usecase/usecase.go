// Package usecase implements short code allocation, resolution and owner-scoped queries.
//
// The use cases never touch storage directly: every read and write goes through the
// narrow repository interfaces declared here, whose implementations live in
// internal/adapter/repository.
package usecase

import (
	"context"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

type urlReserver interface {
	// Reserve atomically creates the mapping iff code is free.
	// It returns entity.ErrShortCodeExists without side effects otherwise.
	Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error)
}

type urlFinder interface {
	Find(ctx context.Context, code string) (*entity.URL, error)
}

type visitCounter interface {
	// IncrementVisits atomically adds one to the visit counter of code.
	IncrementVisits(ctx context.Context, code string) error
}

type resolveRepository interface {
	urlFinder
	visitCounter
}

type queryRepository interface {
	urlFinder
	ListByOwner(ctx context.Context, ownerID string) ([]entity.URL, error)
	SearchByOwner(ctx context.Context, ownerID, substr string) ([]entity.URL, error)
}

type codeGenerator interface {
	Generate() (string, error)
}

// ShortenRecorder observes the outcome of every Shorten call.
type ShortenRecorder interface {
	ObserveShorten(result string)
}

// VisitFailureRecorder observes visit increments that failed in best-effort mode.
type VisitFailureRecorder interface {
	IncVisitFailure()
}

type nopRecorder struct{}

func (nopRecorder) ObserveShorten(string) {}

func (nopRecorder) IncVisitFailure() {}

func toLinks(urls []entity.URL, baseURL string) []entity.Link {
	links := make([]entity.Link, 0, len(urls))
	for i := range urls {
		links = append(links, *entity.NewLink(&urls[i], baseURL))
	}
	return links
}
