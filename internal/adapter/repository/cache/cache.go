// Package cache puts a Redis cache-aside layer in front of a mapping store.
//
// Only the immutable part of a mapping is cached, so visit counts read through
// this layer are always zero; owner-scoped queries must use the backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL           = time.Hour
	defaultKeyPrefix     = "shortlinks:url:"
	defaultLookupTimeout = 5 * time.Second
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type backend interface {
	Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error)
	Find(ctx context.Context, code string) (*entity.URL, error)
	IncrementVisits(ctx context.Context, code string) error
}

type cacheEntry struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	LongURL   string    `json:"long_url"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newCacheEntry(u *entity.URL) cacheEntry {
	return cacheEntry{
		ID:        u.ID,
		Code:      u.Code,
		LongURL:   u.LongURL,
		OwnerID:   u.OwnerID,
		CreatedAt: u.CreatedAt,
	}
}

func (e *cacheEntry) toEntity() *entity.URL {
	return &entity.URL{
		ID:        e.ID,
		Code:      e.Code,
		LongURL:   e.LongURL,
		OwnerID:   e.OwnerID,
		CreatedAt: e.CreatedAt,
	}
}

type Option func(*URLRepository)

func WithTTL(ttl time.Duration) Option {
	return func(r *URLRepository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(r *URLRepository) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithLookupTimeout bounds a shared backend lookup, which outlives the
// caller that started it.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *URLRepository) {
		if d > 0 {
			r.lookupTimeout = d
		}
	}
}

// URLRepository decorates a backend store with Redis.
// Redis failures are logged and fall through to the backend.
type URLRepository struct {
	client redisClient
	next   backend
	logger *slog.Logger
	ttl    time.Duration
	prefix string
	group  singleflight.Group

	lookupTimeout time.Duration
}

func NewURLRepository(client redisClient, next backend, logger *slog.Logger, opts ...Option) *URLRepository {
	r := &URLRepository{
		client: client,
		next:   next,
		logger: logger,
		ttl:    defaultTTL,
		prefix: defaultKeyPrefix,

		lookupTimeout: defaultLookupTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *URLRepository) key(code string) string {
	return r.prefix + code
}

// Reserve writes through after a successful backend reservation.
func (r *URLRepository) Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error) {
	url, err := r.next.Reserve(ctx, code, longURL, ownerID)
	if err != nil {
		return nil, err
	}

	r.store(ctx, url)
	return url, nil
}

// Find serves from Redis when possible. Misses are never cached, so a code
// reserved after a failed lookup is visible immediately.
func (r *URLRepository) Find(ctx context.Context, code string) (*entity.URL, error) {
	const op = "adapter.repository.cache.URLRepository.Find"

	if url, ok := r.load(ctx, code); ok {
		return url, nil
	}

	// The shared lookup runs detached so one caller hanging up does not fail the
	// others waiting on it. Each caller still stops waiting on its own ctx.
	ch := r.group.DoChan(code, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()

		url, err := r.next.Find(ctx, code)
		if err != nil {
			return nil, err
		}

		r.store(ctx, url)
		return url, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%s: %w", op, res.Err)
		}

		url := *res.Val.(*entity.URL)
		return &url, nil
	}
}

func (r *URLRepository) IncrementVisits(ctx context.Context, code string) error {
	return r.next.IncrementVisits(ctx, code)
}

func (r *URLRepository) load(ctx context.Context, code string) (*entity.URL, bool) {
	data, err := r.client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "cache read failed", slog.String("code", code), slog.Any("err", err))
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		r.logger.WarnContext(ctx, "cache entry corrupted", slog.String("code", code), slog.Any("err", err))
		return nil, false
	}

	return entry.toEntity(), true
}

func (r *URLRepository) store(ctx context.Context, url *entity.URL) {
	data, err := json.Marshal(newCacheEntry(url))
	if err != nil {
		r.logger.WarnContext(ctx, "failed to encode cache entry", slog.String("code", url.Code), slog.Any("err", err))
		return
	}

	if err := r.client.Set(ctx, r.key(url.Code), data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "cache write failed", slog.String("code", url.Code), slog.Any("err", err))
	}
}
