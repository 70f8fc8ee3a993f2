// Package memory provides a process-local URL repository.
// It backs the "memory" storage driver and tests that need real concurrency
// semantics without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

type URLRepository struct {
	mu     sync.RWMutex
	nextID int64
	urls   map[string]*entity.URL
	now    func() time.Time
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]*entity.URL),
		now:  time.Now,
	}
}

func (r *URLRepository) Reserve(_ context.Context, code, longURL, ownerID string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Reserve"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[code]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	r.nextID++
	url := &entity.URL{
		ID:        r.nextID,
		Code:      code,
		LongURL:   longURL,
		OwnerID:   ownerID,
		CreatedAt: r.now().UTC(),
	}
	r.urls[code] = url

	cp := *url
	return &cp, nil
}

func (r *URLRepository) Find(_ context.Context, code string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Find"

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.urls[code]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	// Callers get a copy so Visits can only change through IncrementVisits.
	cp := *url
	return &cp, nil
}

func (r *URLRepository) IncrementVisits(_ context.Context, code string) error {
	const op = "adapter.repository.memory.URLRepository.IncrementVisits"

	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[code]
	if !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url.Visits++
	return nil
}

func (r *URLRepository) ListByOwner(_ context.Context, ownerID string) ([]entity.URL, error) {
	return r.filter(func(u *entity.URL) bool {
		return u.OwnerID == ownerID
	}), nil
}

func (r *URLRepository) SearchByOwner(_ context.Context, ownerID, substr string) ([]entity.URL, error) {
	substr = strings.ToLower(substr)

	return r.filter(func(u *entity.URL) bool {
		return u.OwnerID == ownerID && strings.Contains(strings.ToLower(u.LongURL), substr)
	}), nil
}

func (r *URLRepository) filter(keep func(*entity.URL) bool) []entity.URL {
	r.mu.RLock()
	defer r.mu.RUnlock()

	urls := make([]entity.URL, 0)
	for _, u := range r.urls {
		if keep(u) {
			urls = append(urls, *u)
		}
	}

	sort.Slice(urls, func(i, j int) bool {
		if urls[i].CreatedAt.Equal(urls[j].CreatedAt) {
			return urls[i].ID > urls[j].ID
		}
		return urls[i].CreatedAt.After(urls[j].CreatedAt)
	})

	return urls
}
