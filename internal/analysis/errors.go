package analysis

import "strings"

const defaultErrorMessage = "Failed to analyze video"

// Error is a failed analysis. Message is safe to show to the user; Cause
// keeps the underlying error for logs.
type Error struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return defaultErrorMessage
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(message string, status int, cause error) *Error {
	if strings.TrimSpace(message) == "" {
		message = defaultErrorMessage
	}
	return &Error{Message: message, StatusCode: status, Cause: cause}
}
