// Package errors provides structured error types for jrevolver.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the pipeline and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Pointing at the offending location in a layout with a dot path
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Malformed layouts, directives or inputs
//   - *_NOT_FOUND: Missing files
//   - INCLUDE_CYCLE, PERMUTATION_LIMIT, UNRESOLVED: Resolution aborted
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFilter, "--mapExclude should be an array")
//	err = errors.At(err, "servers.0")
//	if errors.Is(err, errors.ErrCodeInvalidFilter) {
//	    // Handle malformed filter list
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidLayout, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidLayout    Code = "INVALID_LAYOUT"
	ErrCodeInvalidDirective Code = "INVALID_DIRECTIVE"
	ErrCodeInvalidFilter    Code = "INVALID_FILTER"
	ErrCodeInvalidMerge     Code = "INVALID_MERGE"
	ErrCodeInvalidMap       Code = "INVALID_MAP"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidFilename  Code = "INVALID_FILENAME"

	// Resource not found errors
	ErrCodeIncludeNotFound Code = "INCLUDE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Resolution errors
	ErrCodeIncludeCycle     Code = "INCLUDE_CYCLE"
	ErrCodePermutationLimit Code = "PERMUTATION_LIMIT"
	ErrCodeUnresolved       Code = "UNRESOLVED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, an optional layout location and
// an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Path    string // Dot path of the offending node ("" for the root)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (at %s)", e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// At records path as the location of err. The innermost location wins: an
// *Error that already carries a path is returned unchanged. Errors that are
// not *Error are wrapped as internal errors.
func At(err error, path string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Code: ErrCodeInternal, Message: err.Error(), Path: path, Cause: err}
	}
	if e.Path == "" {
		e.Path = path
	}
	return err
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetPath extracts the layout location from an error, if available.
func GetPath(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Path != "" {
			return fmt.Sprintf("%s (at %s)", e.Message, e.Path)
		}
		return e.Message
	}
	return err.Error()
}
