package http

import "fmt"

// AppError is an API failure with an HTTP status. It renders as {error, details, type}.
type AppError struct {
	Type    string `json:"type"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(typ, message string, status int) *AppError {
	return &AppError{Type: typ, Message: message, Status: status}
}

// WithError wraps an underlying error and uses it as details when none are set.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	if e.Details == "" && err != nil {
		e.Details = err.Error()
	}
	return e
}
