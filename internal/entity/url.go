// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a short code mapped to a long URL,
// the Link view handed to callers, and the error taxonomy shared by all layers.
package entity

import (
	"strings"
	"time"
)

// URL represents a short code mapping owned by a single principal.
type URL struct {
	ID        int64     // ID is the store-assigned surrogate key.
	Code      string    // Code is the globally unique short code.
	LongURL   string    // LongURL is the absolute URL the code resolves to.
	OwnerID   string    // OwnerID identifies the principal that created the mapping.
	Visits    int64     // Visits is the number of successful resolutions.
	CreatedAt time.Time // CreatedAt is the timestamp when the mapping was reserved.
}

// ShortURL joins baseURL and the short code into a fully qualified short link.
func (u *URL) ShortURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + u.Code
}

// Link is a URL together with its fully qualified short link.
type Link struct {
	URL
	ShortURL string
}

// NewLink builds a Link for u using baseURL as the scheme and host prefix.
func NewLink(u *URL, baseURL string) *Link {
	return &Link{
		URL:      *u,
		ShortURL: u.ShortURL(baseURL),
	}
}
