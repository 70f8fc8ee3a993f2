package entity

import "errors"

// Validation errors.
var (
	// ErrInvalidURL is returned when the long URL is empty, too long or not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidCode is returned when a custom short code is malformed or reserved.
	ErrInvalidCode = errors.New("invalid short code")
)

// Conflict errors.
var (
	// ErrShortCodeExists is returned by repositories when a reservation hits an existing short code.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrCodeTaken is returned to callers when a requested custom short code is already in use.
	ErrCodeTaken = errors.New("short code already taken")
)

// Not-found errors.
var (
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrNotFoundOrDenied is returned when a short code does not exist or belongs to another owner.
	// Both cases share one error so callers cannot discover other owners' codes.
	ErrNotFoundOrDenied = errors.New("url not found or access denied")
)

var (
	// ErrUnauthenticated is returned when an owner-scoped operation is called without an owner.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrExhausted is returned when no free short code was found within the retry budget.
	ErrExhausted = errors.New("short code generation exhausted")
	// ErrStoreUnavailable wraps storage failures that are not part of the mapping contract.
	ErrStoreUnavailable = errors.New("store unavailable")
)
