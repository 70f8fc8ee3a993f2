// Package http provides the HTTP delivery layer for the URL shortener service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, authenticating owners, and formatting responses.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/shortlinks/docs"
)

// Services bundles the use cases served by the router.
type Services struct {
	Shortener shortenUseCase
	Resolver  resolveUseCase
	Query     queryUseCase
}

type instrumenter interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type routerOptions struct {
	baseURL string
	metrics instrumenter
}

type Option func(*routerOptions)

// WithBaseURL fixes the prefix of returned short links instead of deriving it per request.
func WithBaseURL(baseURL string) Option {
	return func(o *routerOptions) {
		o.baseURL = baseURL
	}
}

// WithMetrics instruments every route and serves /metrics.
func WithMetrics(m instrumenter) Option {
	return func(o *routerOptions) {
		o.metrics = m
	}
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
func NewRouter(logger *httplog.Logger, auth *Authenticator, svc Services, opts ...Option) *chi.Mux {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if o.metrics != nil {
		r.Use(o.metrics.Middleware)
		r.Handle("/metrics", o.metrics.Handler())
	}

	h := newURLHandler(svc, validator.New(), o.baseURL)

	r.Get("/health", handleHealth)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, docs.FS, docs.SwaggerFile)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Get("/decode/{code}", h.decodeCode)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/shorten", h.shortenURL)
			r.Get("/stats/{code}", h.getURLStats)
			r.Get("/urls", h.listURLs)
			r.Get("/urls/search", h.searchURLs)
		})
	})

	r.Get("/{code}", h.redirect)

	return r
}
