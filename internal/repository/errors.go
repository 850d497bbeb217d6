package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique key is already taken
	ErrConflict = errors.New("conflict: unique key already exists")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidInput is returned when a row violates a check constraint
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable is returned when the store is busy or closed; callers may retry
	ErrUnavailable = errors.New("store unavailable")
)
