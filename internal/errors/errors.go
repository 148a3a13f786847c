// Package errors provides typed error definitions for cbhands.
// This package consolidates error handling and provides structured error types
// that can be used for better error classification and handling.
package errors

import (
	"fmt"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Service supervision errors
	ErrUnknownService     ErrorCode = "UNKNOWN_SERVICE"
	ErrAlreadyRunning     ErrorCode = "ALREADY_RUNNING"
	ErrStartupTimeout     ErrorCode = "STARTUP_TIMEOUT"
	ErrProcessExitedEarly ErrorCode = "PROCESS_EXITED_EARLY"
	ErrPortInUse          ErrorCode = "PORT_IN_USE"
	ErrStopFailed         ErrorCode = "STOP_FAILED"

	// Command dispatch errors
	ErrCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrMissingOption   ErrorCode = "MISSING_OPTION"
	ErrInvalidOption   ErrorCode = "INVALID_OPTION"
	ErrUnknownOption   ErrorCode = "UNKNOWN_OPTION"

	// Plugin registry errors
	ErrDuplicatePlugin   ErrorCode = "DUPLICATE_PLUGIN"
	ErrMissingDependency ErrorCode = "MISSING_DEPENDENCY"
	ErrDependencyCycle   ErrorCode = "DEPENDENCY_CYCLE"
	ErrDuplicateCommand  ErrorCode = "DUPLICATE_COMMAND"
	ErrConfigInvalid     ErrorCode = "CONFIG_INVALID"

	// Configuration errors
	ErrConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigParse    ErrorCode = "CONFIG_PARSE"

	// Internal errors
	ErrInternal  ErrorCode = "INTERNAL_ERROR"
	ErrDatabase  ErrorCode = "DATABASE"
	ErrFileRead  ErrorCode = "FILE_READ"
	ErrFileWrite ErrorCode = "FILE_WRITE"
)

// CbhandsError represents a structured error with additional context
type CbhandsError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *CbhandsError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *CbhandsError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *CbhandsError) WithContext(key string, value interface{}) *CbhandsError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause error
func (e *CbhandsError) WithCause(cause error) *CbhandsError {
	e.Cause = cause
	return e
}

// ExitCode returns the CLI exit code appropriate for this error.
// Unresolved commands get a distinct code from validation and execution
// failures so scripts can match on kind.
func (e *CbhandsError) ExitCode() int {
	switch e.Code {
	case ErrCommandNotFound:
		return 127
	case ErrMissingOption, ErrInvalidOption, ErrUnknownOption:
		return 2
	default:
		return 1
	}
}

// New creates a new CbhandsError
func New(code ErrorCode, message string) *CbhandsError {
	return &CbhandsError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new CbhandsError with details
func NewWithDetails(code ErrorCode, message, details string) *CbhandsError {
	return &CbhandsError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new CbhandsError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *CbhandsError {
	return &CbhandsError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCbhandsError checks if an error is a CbhandsError
func IsCbhandsError(err error) bool {
	_, ok := err.(*CbhandsError)
	return ok
}

// GetCode extracts the error code from an error, if it's a CbhandsError
func GetCode(err error) ErrorCode {
	if ce, ok := err.(*CbhandsError); ok {
		return ce.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
