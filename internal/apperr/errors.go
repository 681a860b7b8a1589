// Package apperr holds sentinel errors shared across layers and mapped to
// transport status codes.
package apperr

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid argument")
	ErrForbidden = errors.New("forbidden")
)
