package service

import "errors"

// Domain error taxonomy. Services wrap these with context via fmt.Errorf("%w");
// the handler layer maps them to HTTP status codes with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidState      = errors.New("invalid state")
	ErrConflict          = errors.New("conflict")
)
