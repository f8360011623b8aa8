package documents

import "errors"

var (
	// ErrNotFound marks a missing document.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an access attempt by a non-owner.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput marks rejected request input.
	ErrInvalidInput = errors.New("invalid input")
)
