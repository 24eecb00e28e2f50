package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a textwipe error code.
type ErrorCode string

const (
	ErrUsage                 ErrorCode = "USAGE"                  // bad invocation
	ErrInvalidStore          ErrorCode = "INVALID_STORE"          // missing sub-tables or wrong schema
	ErrMalformedRecord       ErrorCode = "MALFORMED_RECORD"       // node or rep does not decode
	ErrMissingRepresentation ErrorCode = "MISSING_REPRESENTATION" // node points at an absent rep
	ErrStorageFailure        ErrorCode = "STORAGE_FAILURE"        // engine rejected a read or write
	ErrInternal              ErrorCode = "INTERNAL"
)

// WipeError represents a structured error with code, exit status, and details.
type WipeError struct {
	Code     ErrorCode
	ExitCode int
	Message  string
	Details  map[string]any
	Err      error
}

// Error implements the error interface.
func (e *WipeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *WipeError) Unwrap() error {
	return e.Err
}

// NewUsage creates an error for a wrong argument count or unknown flag.
func NewUsage(msg string) *WipeError {
	return &WipeError{
		Code:     ErrUsage,
		ExitCode: 1,
		Message:  msg,
	}
}

// NewInvalidStore creates an error for a repository that does not carry the
// expected set of tables.
func NewInvalidStore(path, reason string) *WipeError {
	return &WipeError{
		Code:     ErrInvalidStore,
		ExitCode: 1,
		Message:  fmt.Sprintf("'%s' is not a valid svn repository: %s", path, reason),
		Details:  map[string]any{"path": path, "reason": reason},
	}
}

// NewMalformedRecord creates an error for a record whose bytes do not match
// the expected skeleton shape.
func NewMalformedRecord(what string, cause error) *WipeError {
	msg := fmt.Sprintf("malformed %s record", what)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &WipeError{
		Code:     ErrMalformedRecord,
		ExitCode: 1,
		Message:  msg,
		Details:  map[string]any{"record": what},
		Err:      cause,
	}
}

// NewMissingRepresentation creates an error for a node whose content key
// does not resolve in the representations table.
func NewMissingRepresentation(nodeKey, repKey string) *WipeError {
	return &WipeError{
		Code:     ErrMissingRepresentation,
		ExitCode: 1,
		Message:  fmt.Sprintf("node %q references missing representation %q", nodeKey, repKey),
		Details:  map[string]any{"node_key": nodeKey, "rep_key": repKey},
	}
}

// NewStorageFailure wraps an engine error from the named table.
func NewStorageFailure(table string, err error) *WipeError {
	msg := fmt.Sprintf("storage failure on table %s", table)
	if err != nil {
		msg += ": " + err.Error()
	}
	return &WipeError{
		Code:     ErrStorageFailure,
		ExitCode: 1,
		Message:  msg,
		Details:  map[string]any{"table": table},
		Err:      err,
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *WipeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &WipeError{
		Code:     ErrInternal,
		ExitCode: 1,
		Message:  msg,
		Err:      err,
	}
}

// Is checks if an error is (or wraps) a WipeError with the given code.
func Is(err error, code ErrorCode) bool {
	var wErr *WipeError
	if stderrors.As(err, &wErr) {
		return wErr.Code == code
	}
	return false
}

// ExitCode returns the process exit status for err. Errors that are not a
// WipeError map to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var wErr *WipeError
	if stderrors.As(err, &wErr) && wErr.ExitCode != 0 {
		return wErr.ExitCode
	}
	return 1
}
