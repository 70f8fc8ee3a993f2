package usecase

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	maxURLLength        = 2048
	minCustomCodeLength = 3
	maxCustomCodeLength = 64
	minSearchLength     = 3
)

var codeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedCodes collide with routes served next to the redirect endpoint.
var reservedCodes = map[string]struct{}{
	"api":     {},
	"docs":    {},
	"health":  {},
	"metrics": {},
	"swagger": {},
}

func validLongURL(raw string) bool {
	if raw == "" || len(raw) > maxURLLength {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}

// wellFormedCode reports whether code could have been reserved at all.
func wellFormedCode(code string) bool {
	if len(code) < minCustomCodeLength || len(code) > maxCustomCodeLength {
		return false
	}
	return codeRe.MatchString(code)
}

func validCustomCode(code string) bool {
	if !wellFormedCode(code) {
		return false
	}

	_, reserved := reservedCodes[strings.ToLower(code)]
	return !reserved
}
