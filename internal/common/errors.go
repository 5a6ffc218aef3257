package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrConfiguration is the only error class that surfaces to the process
	// exit code; everything else is caught at the pipeline boundary.
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrTransient marks an external-call failure worth retrying
	// (rate limit, timeout, temporary server error).
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks an external-call failure that retrying cannot fix
	// (auth error, malformed input).
	ErrPermanent = errors.New("permanent failure")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ConfigError builds a fatal configuration error.
func ConfigError(message string) error {
	return NewAppError("CONFIG_ERROR", message, ErrConfiguration)
}

// Transient wraps err so the retry layer treats it as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent wraps err so the retry layer fails fast.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}
