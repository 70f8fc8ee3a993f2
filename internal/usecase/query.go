package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

// Query serves owner-scoped reads over mappings.
type Query struct {
	repo queryRepository
}

// NewQuery creates a Query reading from repo.
func NewQuery(repo queryRepository) *Query {
	return &Query{repo: repo}
}

// Stats returns the mapping for code if it belongs to ownerID.
// A missing code and a foreign code both yield entity.ErrNotFoundOrDenied.
func (q *Query) Stats(ctx context.Context, code, ownerID, baseURL string) (*entity.Link, error) {
	const op = "usecase.Query.Stats"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthenticated)
	}

	if !wellFormedCode(code) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFoundOrDenied)
	}

	url, err := q.repo.Find(ctx, code)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFoundOrDenied)
		}

		return nil, fmt.Errorf("%s: failed to find url: %w", op, err)
	}

	if url.OwnerID != ownerID {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrNotFoundOrDenied)
	}

	return entity.NewLink(url, baseURL), nil
}

// List returns every mapping of ownerID, newest first.
func (q *Query) List(ctx context.Context, ownerID, baseURL string) ([]entity.Link, error) {
	const op = "usecase.Query.List"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthenticated)
	}

	urls, err := q.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return toLinks(urls, baseURL), nil
}

// Search returns mappings of ownerID whose long URL contains query, ignoring case.
// Queries shorter than three characters yield an empty result.
func (q *Query) Search(ctx context.Context, ownerID, query, baseURL string) ([]entity.Link, error) {
	const op = "usecase.Query.Search"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthenticated)
	}

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLength {
		return []entity.Link{}, nil
	}

	urls, err := q.repo.SearchByOwner(ctx, ownerID, query)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to search urls: %w", op, err)
	}

	return toLinks(urls, baseURL), nil
}
