// Package status defines the error taxonomy shared by the decoder, the
// sentinel model and the write context.
//
// Three kinds of failure exist:
//   - INVALID_ARGUMENT: the caller misused an API (usage error, recoverable)
//   - INTERNAL: upstream data broke its own contract (invariant violation)
//   - NOT_FOUND: a requested document is absent from the local store
//
// Soft degradation (e.g. cross-database references) is never an error; it is
// logged and execution continues.
package status

import (
	"errors"
	"fmt"
)

// Code categorizes an Error.
type Code string

const (
	// CodeInvalidArgument indicates a usage error by the caller.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeInternal indicates an invariant violation in wire data.
	CodeInternal Code = "INTERNAL"

	// CodeNotFound indicates a missing document.
	CodeNotFound Code = "NOT_FOUND"
)

// Error carries a Code plus optional field context.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Field is the dotted field path the error relates to, if any.
	Field string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InvalidArgument creates a usage error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an invariant-violation error.
func Internal(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a missing-document error.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// WithField returns a copy of e annotated with a field path.
func (e *Error) WithField(field string) *Error {
	c := *e
	c.Field = field
	return &c
}

// CodeOf extracts the code from err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsInvalidArgument reports whether err is a usage error.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == CodeInvalidArgument
}

// IsInternal reports whether err is an invariant violation.
func IsInternal(err error) bool {
	return CodeOf(err) == CodeInternal
}

// IsNotFound reports whether err is a missing-document error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
