// Package apperr holds the error values shared across wordhop packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrMalformed     = errors.New("malformed")
)

// FormatError reports an encoded field that cannot be decoded for its word.
type FormatError struct {
	Word   string
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed %s field for %q: %s", e.Field, e.Word, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrMalformed }

// MissingWordError reports a lookup of a word absent from the vocabulary.
// Referrer, Position and Kind are set when the lookup came from following an
// edge of another word.
type MissingWordError struct {
	Word     string
	Referrer string
	Position int
	Kind     string
}

func (e *MissingWordError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("word %q not in vocabulary", e.Word)
	}
	return fmt.Sprintf("word %q not in vocabulary (referenced by %s edge of %q at position %d)",
		e.Word, e.Kind, e.Referrer, e.Position)
}

func (e *MissingWordError) Unwrap() error { return ErrNotFound }
