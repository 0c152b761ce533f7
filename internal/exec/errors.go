package exec

import (
	"errors"
	"fmt"
	"time"
)

// Code categorizes where in the statement lifecycle a failure occurred.
type Code string

const (
	// CodeCreation indicates the statement could not be created
	// (malformed SQL, connection unavailable).
	CodeCreation Code = "CREATION_FAILED"

	// CodePreparation indicates parameter binding failed
	// (encoding mismatch, wrong arity).
	CodePreparation Code = "PREPARATION_FAILED"

	// CodeExecution indicates the database rejected or failed the
	// statement (constraint violation, syntax, timeout, cancellation).
	CodeExecution Code = "EXECUTION_FAILED"

	// CodeProcessing indicates row decoding or downstream consumption
	// failed after a successful execution.
	CodeProcessing Code = "PROCESSING_FAILED"

	// CodeLogging indicates the log handler itself failed. By policy this
	// supersedes the error being reported, which stays reachable as a
	// wrapped cause.
	CodeLogging Code = "LOGGING_FAILED"
)

// PhaseError is the terminal error of one invocation. It carries enough
// context for diagnosis: the failing phase, the call's LogInfo, and the
// elapsed duration of the failing phase.
type PhaseError struct {
	Code    Code
	Info    LogInfo
	Elapsed time.Duration
	Err     error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	if e.Info.Label != "" {
		return fmt.Sprintf("%s: %v (call=%s, label=%s)", e.Code, e.Err, e.Info.ID, e.Info.Label)
	}
	return fmt.Sprintf("%s: %v (call=%s)", e.Code, e.Err, e.Info.ID)
}

// Unwrap returns the underlying cause.
func (e *PhaseError) Unwrap() error { return e.Err }

// CodeOf returns the lifecycle code carried by err, or "" if err does not
// wrap a *PhaseError.
func CodeOf(err error) Code {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsExecutionError reports whether err is a create/prepare/execute phase
// failure. Uses errors.As to handle wrapped errors.
func IsExecutionError(err error) bool {
	switch CodeOf(err) {
	case CodeCreation, CodePreparation, CodeExecution:
		return true
	}
	return false
}

// IsProcessingError reports whether err is a processing phase failure.
func IsProcessingError(err error) bool {
	return CodeOf(err) == CodeProcessing
}

// IsLoggingError reports whether err is a log handler failure.
func IsLoggingError(err error) bool {
	return CodeOf(err) == CodeLogging
}

func (ex *Executor) failure(code Code, info LogInfo, elapsed time.Duration, cause error) *PhaseError {
	return &PhaseError{Code: code, Info: info, Elapsed: elapsed, Err: cause}
}
