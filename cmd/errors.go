package cmd

import (
	"errors"

	"esp-users-audit/pkg/client"
	"esp-users-audit/pkg/config"
)

const credentialsMessage = "Error: Please check your ESP credentials / API keys."

// UsageError is returned for a missing or invalid command line
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// ReportError carries a message meant for the user as-is
type ReportError struct {
	Message string
	Err     error
}

func (e *ReportError) Error() string {
	return e.Message
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// userMessage returns the line printed for a failed run
func userMessage(err error, usage string) string {
	var usageErr *UsageError
	var reportErr *ReportError

	switch {
	case errors.As(err, &usageErr):
		return usage
	case errors.Is(err, config.ErrMissingCredentials), client.IsUnauthorizedError(err):
		return credentialsMessage
	case errors.As(err, &reportErr):
		return reportErr.Message
	default:
		return err.Error()
	}
}
