// Package codegen produces random short code candidates.
// Candidates are not guaranteed to be unique; uniqueness is enforced by the repository.
package codegen

import (
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet holds the 62 symbols generated codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is the length of generated codes.
	DefaultLength = 6
	// MaxLength is the longest code the store and the resolver accept.
	MaxLength = 64
)

// ErrInvalidLength is returned by New when the requested length is outside [DefaultLength, MaxLength].
var ErrInvalidLength = errors.New("code length must be between 6 and 64")

// Generator draws fixed-length codes uniformly from Alphabet.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	length int
}

// New returns a Generator producing codes of the given length.
func New(length int) (*Generator, error) {
	const op = "codegen.New"

	if length < DefaultLength || length > MaxLength {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	return &Generator{length: length}, nil
}

// Generate returns a new random candidate code.
func (g *Generator) Generate() (string, error) {
	const op = "codegen.Generator.Generate"

	code, err := gonanoid.Generate(Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate code: %w", op, err)
	}

	return code, nil
}
