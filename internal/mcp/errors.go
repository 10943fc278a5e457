package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/rpggio/downloadactivity/internal/repository"
)

// errUnauthenticated is returned by tools called without an acting user.
var errUnauthenticated = errors.New("no authenticated user")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, errUnauthenticated):
		return &APIError{Code: "UNAUTHENTICATED", Message: "no acting user", RecoveryHint: "Send a bearer token or configure auth.default_user"}
	case errors.Is(err, activity.ErrInvalidInput), errors.Is(err, owner.ErrInvalidPath), errors.Is(err, repository.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check the arguments"}
	case errors.Is(err, owner.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "file not found", RecoveryHint: "Check the path is visible to the acting user"}
	case errors.Is(err, activity.ErrUnsupportedEvent):
		return &APIError{Code: "UNSUPPORTED_EVENT", Message: err.Error()}
	default:
		return nil
	}
}

// toolError converts err into the error returned from a tool handler.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
