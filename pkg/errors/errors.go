// Package errors provides structured error types for GridLookout.
//
// This package defines error codes and types that enable:
//   - A fixed taxonomy for schema validation failures
//   - Machine-readable error codes for programmatic handling
//   - Location context (layer, cell, field) for every validation failure
//   - Aggregation of all failures found in a single validation pass
//
// # Error Codes
//
// Validation failures carry one of three codes:
//   - SCHEMA_STRUCTURE: empty layer list, duplicate or empty names
//   - VIEWPORT: non-positive or non-finite viewport dimensions
//   - CELL_BOUNDS: fractional fields outside [0,1] or overflowing the viewport
//
// Everything else (decoding, lookups, I/O) uses the general codes.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeViewport, "width must be positive, got %v", w).
//	    At("MainLayer", "", "width")
//	if errors.Is(err, errors.ErrCodeViewport) {
//	    // Handle viewport error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Schema validation errors
	ErrCodeSchemaStructure Code = "SCHEMA_STRUCTURE"
	ErrCodeViewport        Code = "VIEWPORT"
	ErrCodeCellBounds      Code = "CELL_BOUNDS"

	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeConflict Code = "CONFLICT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, an optional schema location and
// an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Layer   string // Layer name, if the error is tied to a layer
	Cell    string // Cell name, if the error is tied to a cell
	Field   string // Offending field (e.g. "width", "startX+width")
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	if loc := e.Location(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Location formats the layer/cell/field context, e.g.
// `layer "main" cell "header" field "width"`. Empty parts are omitted.
func (e *Error) Location() string {
	var parts []string
	if e.Layer != "" {
		parts = append(parts, fmt.Sprintf("layer %q", e.Layer))
	}
	if e.Cell != "" {
		parts = append(parts, fmt.Sprintf("cell %q", e.Cell))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field %q", e.Field))
	}
	return strings.Join(parts, " ")
}

// At sets the schema location of the error and returns it for chaining.
func (e *Error) At(layer, cell, field string) *Error {
	e.Layer = layer
	e.Cell = cell
	e.Field = field
	return e
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

// Is reports whether err, or any error in its tree, is an *Error with the
// given code. Lists are searched element by element.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	var l *List
	if errors.As(err, &l) {
		for _, item := range l.Errors {
			if item.Code == code {
				return true
			}
		}
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// For a List, the code of the first item is returned.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the location and message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if loc := e.Location(); loc != "" {
			return loc + ": " + e.Message
		}
		return e.Message
	}
	return err.Error()
}
