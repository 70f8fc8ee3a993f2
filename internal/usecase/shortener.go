package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

const defaultMaxRetries = 10

// Results reported to a ShortenRecorder.
const (
	ShortenCreated   = "created"
	ShortenInvalid   = "invalid"
	ShortenCodeTaken = "code_taken"
	ShortenExhausted = "exhausted"
	ShortenError     = "error"
)

// ShortenParams holds the input of Shortener.Shorten.
type ShortenParams struct {
	LongURL    string
	OwnerID    string
	CustomCode string // CustomCode is optional; a random code is generated when empty.
	BaseURL    string // BaseURL is the scheme and host prefix of the returned short link.
}

// ShortenerOption configures a Shortener.
type ShortenerOption func(*Shortener)

// WithMaxRetries caps the number of generated candidates tried per call.
func WithMaxRetries(n int) ShortenerOption {
	return func(s *Shortener) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithShortenRecorder reports the outcome of every call to rec.
func WithShortenRecorder(rec ShortenRecorder) ShortenerOption {
	return func(s *Shortener) {
		s.recorder = rec
	}
}

// Shortener is the only writer of new mappings.
type Shortener struct {
	repo       urlReserver
	gen        codeGenerator
	maxRetries int
	recorder   ShortenRecorder
}

// NewShortener creates a Shortener reserving codes in repo and drawing candidates from gen.
func NewShortener(repo urlReserver, gen codeGenerator, opts ...ShortenerOption) *Shortener {
	s := &Shortener{
		repo:       repo,
		gen:        gen,
		maxRetries: defaultMaxRetries,
		recorder:   nopRecorder{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Shorten validates the input and reserves either the custom code or a generated one.
// Generated candidates that collide are retried up to the configured limit.
func (s *Shortener) Shorten(ctx context.Context, p ShortenParams) (*entity.Link, error) {
	url, err := s.shorten(ctx, p)
	s.recorder.ObserveShorten(shortenResult(err))
	if err != nil {
		return nil, err
	}

	return entity.NewLink(url, p.BaseURL), nil
}

func (s *Shortener) shorten(ctx context.Context, p ShortenParams) (*entity.URL, error) {
	const op = "usecase.Shortener.Shorten"

	if p.OwnerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthenticated)
	}

	if !validLongURL(p.LongURL) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}

	if p.CustomCode != "" {
		if !validCustomCode(p.CustomCode) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidCode)
		}

		url, err := s.repo.Reserve(ctx, p.CustomCode, p.LongURL, p.OwnerID)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeTaken)
			}

			return nil, fmt.Errorf("%s: failed to reserve custom code: %w", op, err)
		}

		return url, nil
	}

	for i := 0; i < s.maxRetries; i++ {
		code, err := s.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := s.repo.Reserve(ctx, code, p.LongURL, p.OwnerID)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to reserve short code: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrExhausted)
}

func shortenResult(err error) string {
	switch {
	case err == nil:
		return ShortenCreated
	case errors.Is(err, entity.ErrInvalidURL), errors.Is(err, entity.ErrInvalidCode),
		errors.Is(err, entity.ErrUnauthenticated):
		return ShortenInvalid
	case errors.Is(err, entity.ErrCodeTaken):
		return ShortenCodeTaken
	case errors.Is(err, entity.ErrExhausted):
		return ShortenExhausted
	default:
		return ShortenError
	}
}
