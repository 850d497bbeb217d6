package session

import "errors"

var (
	// ErrSessionNotFound indicates no activity session exists for the user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput indicates invalid heartbeat input.
	ErrInvalidInput = errors.New("invalid session input")
)
