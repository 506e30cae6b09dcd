package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an embedding or chat model call fails.
	ErrExternalService = errors.New("external service error")
	// ErrStoreUnavailable is returned when the chunk store or a repository fails.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Classify wraps err so that errors.Is matches kind as well as everything
// err already matches.
func Classify(kind error, msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, kind, err)
}
