package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents a non-2xx answer from the ESP API
type APIError struct {
	StatusCode int
	Status     string
	Operation  string   // e.g., "list users"
	Details    []string // JSON:API errors[].detail, or the raw body when it is not JSON:API
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s failed: HTTP %d: %s", e.Operation, e.StatusCode, e.Status)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, status, operation string, details ...string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Operation:  operation,
		Details:    details,
	}
}

// IsUnauthorizedError reports whether err is an APIError with HTTP 401
func IsUnauthorizedError(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
}
