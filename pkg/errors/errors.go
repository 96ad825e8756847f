// Package errors provides the unified error type and factory functions
// used across buildsight. Every layer (domain, application,
// infrastructure, interfaces) carries structured error information
// through AppError so that logging and run summaries stay consistent.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the
// repository. It satisfies the standard error interface and supports
// Go 1.13+ wrapping, so errors.Is / errors.As / errors.Unwrap work
// transparently across layers.
//
// Usage:
//
//	return errors.New(errors.ErrCodeEmptyInput, "no spawn records loaded")
//	return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert archetypes")
type AppError struct {
	// Code uniquely identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description.
	Message string

	// Detail carries supplementary context (file paths, record keys,
	// counts) that aids debugging without bloating Message.
	Detail string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
// Format: "[<code>] <message>: <detail>" with detail omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is / errors.As
// traversal of the full chain.
func (e *AppError) Unwrap() error { return e.Cause }

// WithDetail returns a shallow copy of the receiver with Detail set.
// Safe to call on a nil receiver.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf constructs an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an AppError that wraps an existing error. If err is
// nil, Wrap returns a nil *AppError; a caller whose result type is the
// error interface must check err before wrapping, since a typed nil
// pointer converts to a non-nil interface value.
// When err is already an *AppError and code is ErrCodeUnknown the
// original code is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == ErrCodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsCode reports whether any error in err's chain is an *AppError with
// the given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError in err's
// chain, or ErrCodeUnknown when none is present.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ErrorCode("OK")
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeUnknown
}
