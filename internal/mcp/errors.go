package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/codepulse/internal/codec"
	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/repository"
)

// ErrUnauthenticated indicates a tool call without a valid identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to
// INTERNAL without exposing their text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return &APIError{Code: "UNAUTHENTICATED", Message: "unauthenticated", RecoveryHint: "Send a valid bearer token"}
	case errors.Is(err, project.ErrInvalidInput), errors.Is(err, session.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), RecoveryHint: "Check required arguments"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid record ids"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "no activity found", RecoveryHint: "Open a project in the editor first"}
	case errors.Is(err, codec.ErrDecode):
		return &APIError{Code: "DECODE_ERROR", Message: "stored structure could not be decoded"}
	case errors.Is(err, repository.ErrUnavailable):
		return &APIError{Code: "STORE_UNAVAILABLE", Message: "store temporarily unavailable", RecoveryHint: "Retry later"}
	default:
		return &APIError{Code: "INTERNAL", Message: "internal error"}
	}
}
