// Package nlpaerr defines the application's error taxonomy: a small set
// of codes plus an AppError wrapper compatible with errors.Is/errors.As.
package nlpaerr

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown        = "UNKNOWN_ERROR"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeConfigError    = "CONFIG_ERROR"
	CodeCapacityError  = "CAPACITY_ERROR"
	CodeIOError        = "IO_ERROR"
	CodeAlgorithmError = "ALGORITHM_ERROR"
	CodeNotFound       = "NOT_FOUND"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrInvalidInput   = New(CodeInvalidInput, "invalid input")
	ErrConfigError    = New(CodeConfigError, "configuration error")
	ErrCapacityError  = New(CodeCapacityError, "capacity exceeded")
	ErrIOError        = New(CodeIOError, "i/o error")
	ErrAlgorithmError = New(CodeAlgorithmError, "algorithm error")
	ErrNotFound       = New(CodeNotFound, "resource not found")
)

// IsInvalidInput checks if the error is an invalid-input error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCapacityError checks if the error is a capacity error.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrCapacityError)
}

// IsAlgorithmError checks if the error is an algorithm error.
func IsAlgorithmError(err error) bool {
	return errors.Is(err, ErrAlgorithmError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
