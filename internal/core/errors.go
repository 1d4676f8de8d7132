package core

import "errors"

var (
	// ErrNotFound is returned for unknown photos, associated photos and images.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for uploads and arguments the service cannot use.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDescriberUnavailable is returned when no describer is configured.
	ErrDescriberUnavailable = errors.New("no describer configured")
)
