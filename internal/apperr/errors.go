// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrMalformedDocument marks a glossary document that parsed as XML but is
	// missing a required node.
	ErrMalformedDocument = errors.New("malformed glossary document")
	ErrUnsupportedKind   = errors.New("unsupported question kind")
)
