// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTarget     = errors.New("invalid destination")
	ErrMissingCredential = errors.New("missing credential")
	ErrUnsupported       = errors.New("unsupported")
)
