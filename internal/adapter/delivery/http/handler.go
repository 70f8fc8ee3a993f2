package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"github.com/vadimbarashkov/shortlinks/internal/usecase"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "OK"})
}

type shortenUseCase interface {
	Shorten(ctx context.Context, p usecase.ShortenParams) (*entity.Link, error)
}

type resolveUseCase interface {
	Resolve(ctx context.Context, code string) (string, error)
}

type queryUseCase interface {
	Stats(ctx context.Context, code, ownerID, baseURL string) (*entity.Link, error)
	List(ctx context.Context, ownerID, baseURL string) ([]entity.Link, error)
	Search(ctx context.Context, ownerID, query, baseURL string) ([]entity.Link, error)
}

type urlHandler struct {
	shortener shortenUseCase
	resolver  resolveUseCase
	query     queryUseCase
	validate  *validator.Validate
	baseURL   string
}

func newURLHandler(svc Services, validate *validator.Validate, baseURL string) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		shortener: svc.Shortener,
		resolver:  svc.Resolver,
		query:     svc.Query,
		validate:  validate,
		baseURL:   baseURL,
	}
}

// requestBaseURL is the configured base URL, or the one the client reached us on.
func (h *urlHandler) requestBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.SplitN(proto, ",", 2)[0])
	}

	return scheme + "://" + r.Host
}

// renderError maps use case errors to HTTP responses.
// Only failures the client cannot fix are attached to the request log.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		resp   errorResponse
	)

	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		status, resp = http.StatusBadRequest, newErrorResponse(codeInvalidURL, "long url must be an absolute http(s) url")
	case errors.Is(err, entity.ErrInvalidCode):
		status, resp = http.StatusBadRequest, newErrorResponse(codeInvalidCode, "custom code is malformed or reserved")
	case errors.Is(err, entity.ErrUnauthenticated):
		status, resp = http.StatusUnauthorized, unauthenticatedResponse
	case errors.Is(err, entity.ErrURLNotFound):
		status, resp = http.StatusNotFound, newErrorResponse(codeNotFound, "url not found")
	case errors.Is(err, entity.ErrNotFoundOrDenied):
		status, resp = http.StatusNotFound, newErrorResponse(codeNotFoundOrDenied, "url not found")
	case errors.Is(err, entity.ErrCodeTaken):
		status, resp = http.StatusConflict, newErrorResponse(codeCodeTaken, "short code already taken")
	case errors.Is(err, entity.ErrExhausted):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		status, resp = http.StatusServiceUnavailable, newErrorResponse(codeExhausted, "no free short code found, try again")
	case errors.Is(err, entity.ErrStoreUnavailable):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		status, resp = http.StatusServiceUnavailable, newErrorResponse(codeStoreUnavailable, "storage is unavailable, try again later")
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		status, resp = http.StatusInternalServerError, serverErrorResponse
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	link, err := h.shortener.Shorten(r.Context(), usecase.ShortenParams{
		LongURL:    req.LongURL,
		OwnerID:    ownerFromContext(r.Context()),
		CustomCode: req.CustomCode,
		BaseURL:    h.requestBaseURL(r),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, shortenResponse{
		Code:     link.Code,
		LongURL:  link.LongURL,
		ShortURL: link.ShortURL,
	})
}

func (h *urlHandler) decodeCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	longURL, err := h.resolver.Resolve(r.Context(), code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, decodeResponse{LongURL: longURL})
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	longURL, err := h.resolver.Resolve(r.Context(), code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	http.Redirect(w, r, longURL, http.StatusFound)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.query.Stats(r.Context(), code, ownerFromContext(r.Context()), h.requestBaseURL(r))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponse(link))
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	links, err := h.query.List(r.Context(), ownerFromContext(r.Context()), h.requestBaseURL(r))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponses(links))
}

func (h *urlHandler) searchURLs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	links, err := h.query.Search(r.Context(), ownerFromContext(r.Context()), q, h.requestBaseURL(r))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponses(links))
}
