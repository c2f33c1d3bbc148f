package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation classifies malformed input rejected before any external call.
	ErrValidation = errors.New("validation error")
	// ErrProvider classifies failures of the embedding or generation services.
	ErrProvider = errors.New("provider error")
	// ErrStore classifies failures raised by the persistence layer.
	ErrStore = errors.New("store error")
)
