package driver

import (
	"errors"
	"fmt"
)

// DecodeError reports that a fetched row could not be decoded into the
// caller's expected type. It is the row-level cause behind a processing
// failure surfaced by the execution core.
type DecodeError struct {
	// Column is the 0-based index of the offending column, or -1 when the
	// failure concerns the row as a whole (e.g. wrong column count).
	Column int

	// Want describes the expected Go type or row shape.
	Want string

	// Got is the raw driver value that failed to decode.
	Got any

	// Err is an optional underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("decode row: want %s, got %T", e.Want, e.Got)
	}
	return fmt.Sprintf("decode column %d: want %s, got %T", e.Column, e.Want, e.Got)
}

// Unwrap returns the underlying cause, if any.
func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
