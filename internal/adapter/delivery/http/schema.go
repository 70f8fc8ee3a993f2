package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

const statusError = "error"

// Machine-readable error codes.
const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeInvalidURL       = "INVALID_URL"
	codeInvalidCode      = "INVALID_CODE"
	codeUnauthenticated  = "UNAUTHENTICATED"
	codeNotFound         = "NOT_FOUND"
	codeNotFoundOrDenied = "NOT_FOUND_OR_DENIED"
	codeCodeTaken        = "CODE_TAKEN"
	codeExhausted        = "EXHAUSTED"
	codeStoreUnavailable = "STORE_UNAVAILABLE"
	codeInternal         = "INTERNAL"
)

// shortenRequest represents the body of a shorten request.
type shortenRequest struct {
	LongURL    string `json:"long_url" validate:"required,max=2048"`
	CustomCode string `json:"custom_code" validate:"omitempty,min=3,max=64"`
}

type shortenResponse struct {
	Code     string `json:"code"`
	LongURL  string `json:"long_url"`
	ShortURL string `json:"short_url"`
}

type decodeResponse struct {
	LongURL string `json:"long_url"`
}

// urlResponse is the owner's view of a mapping, visits included.
type urlResponse struct {
	Code      string    `json:"code"`
	LongURL   string    `json:"long_url"`
	ShortURL  string    `json:"short_url"`
	Visits    int64     `json:"visits"`
	CreatedAt time.Time `json:"created_at"`
}

func toURLResponse(link *entity.Link) urlResponse {
	return urlResponse{
		Code:      link.Code,
		LongURL:   link.LongURL,
		ShortURL:  link.ShortURL,
		Visits:    link.Visits,
		CreatedAt: link.CreatedAt,
	}
}

func toURLResponses(links []entity.Link) []urlResponse {
	resp := make([]urlResponse, 0, len(links))
	for i := range links {
		resp = append(resp, toURLResponse(&links[i]))
	}
	return resp
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

func newErrorResponse(code, msg string) errorResponse {
	return errorResponse{
		Status:  statusError,
		Code:    code,
		Message: msg,
	}
}

var (
	emptyRequestBodyResponse   = newErrorResponse(codeInvalidRequest, "empty request body")
	invalidRequestBodyResponse = newErrorResponse(codeInvalidRequest, "invalid request body")
	unauthenticatedResponse    = newErrorResponse(codeUnauthenticated, "authentication required")
	serverErrorResponse        = newErrorResponse(codeInternal, "server error occurred")
)

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "min":
		return "value is too short"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}

// validationErrorResponse reports every failed field. The code names the
// first failed field so clients can branch on it like on use case errors.
func validationErrorResponse(err error) errorResponse {
	resp := newErrorResponse(codeInvalidRequest, "validation error")

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return resp
	}

	for i, e := range errs {
		if i == 0 {
			switch e.Field() {
			case "long_url":
				resp.Code = codeInvalidURL
			case "custom_code":
				resp.Code = codeInvalidCode
			}
		}

		resp.Errors = append(resp.Errors, validationError{
			Field:   e.Field(),
			Message: messageForTag(e.Tag()),
		})
	}

	return resp
}
