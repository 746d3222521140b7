package core

// errors.go defines the error taxonomy of a batch.
//
// Batch-level errors (DecodeError, MissingColumnsError, ConfigError) abort the
// request before any row runs. Row-level errors (RequiredFieldMissingError,
// FieldError wrapping CoercionError/MappingNotFoundError, PathConflictError)
// are recorded against the row and the batch continues.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingEndpointConfig is returned when service or endpoint is empty.
	ErrMissingEndpointConfig = errors.New("missing endpoint configuration: service and endpoint are required")

	// ErrMissingStructure is returned when the request carries no field mapping.
	ErrMissingStructure = errors.New("missing structure: a field mapping is required")

	// ErrMissingData is returned when the request carries no spreadsheet.
	ErrMissingData = errors.New("missing base64data")
)

// DecodeError reports a spreadsheet that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode spreadsheet: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// ConfigError reports an unusable request configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "invalid configuration: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// MissingColumnsError lists every mapped column absent from the sheet header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Columns, ", "))
}

// RequiredFieldMissingError reports an empty cell for a required field.
type RequiredFieldMissingError struct {
	Key string
}

func (e *RequiredFieldMissingError) Error() string {
	return fmt.Sprintf("required field %q is empty", e.Key)
}

// CoercionError reports a cell that cannot be converted to its parse type.
type CoercionError struct {
	Parse ParseType
	Kind  CellKind
	Value string
	Err   error
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("cannot convert %s value %q to %s", e.Kind, e.Value, e.Parse)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CoercionError) Unwrap() error { return e.Err }

// MappingNotFoundError reports a value with no entry in the value map.
type MappingNotFoundError struct {
	Value string
}

func (e *MappingNotFoundError) Error() string {
	return fmt.Sprintf("no mapping found for value %q", e.Value)
}

// PathConflictError reports a dotted key that would descend through a
// value that is not an object.
type PathConflictError struct {
	Key     string
	Segment string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("key %q conflicts with existing non-object value at %q", e.Key, e.Segment)
}

// FieldError attaches the output key to a coercion failure.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string { return fmt.Sprintf("field %q: %v", e.Key, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// ComplementError reports a complement that is not a JSON object.
type ComplementError struct {
	Got string
}

func (e *ComplementError) Error() string {
	return fmt.Sprintf("complement must be an object, got %s", e.Got)
}
