package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found for the requesting owner.
// Ownership is part of the lookup, so a foreign-owned record reports the
// same way as a missing one.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrDuplicateEmail indicates an email uniqueness violation: leads are
// unique per (owner, email), user accounts per email.
type ErrDuplicateEmail struct {
	Email string
}

func (e *ErrDuplicateEmail) Error() string {
	return fmt.Sprintf("email %s is already in use", e.Email)
}

// ErrUnauthorized indicates missing or invalid credentials.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrUnavailable indicates a transient store failure (timeout, lost
// connection, open circuit). Safe for the caller to retry with backoff.
type ErrUnavailable struct {
	Op  string
	Err error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *ErrUnavailable) Unwrap() error {
	return e.Err
}
