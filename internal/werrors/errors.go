// Package werrors provides the coded error type used throughout scanwatch.
// Only the message of a WatchError is meant to cross into the presentation
// layer; codes let callers branch without string matching.
package werrors

import "fmt"

// Code identifies a specific error condition.
type Code string

const (
	// Remote Job API errors
	CodeAPIUnavailable Code = "API_UNAVAILABLE"
	CodeAPIStatus      Code = "API_STATUS"
	CodeScanNotFound   Code = "SCAN_NOT_FOUND"
	CodeInvalidTarget  Code = "INVALID_TARGET"

	// Persistence errors
	CodeStorageOpen    Code = "STORAGE_OPEN"
	CodeStorageCorrupt Code = "STORAGE_CORRUPT"

	// General errors
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
)

// WatchError is a structured error with a machine-readable code.
type WatchError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *WatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *WatchError) Unwrap() error {
	return e.Cause
}

// New creates a WatchError with no underlying cause.
func New(code Code, message string) *WatchError {
	return &WatchError{Code: code, Message: message}
}

// Newf creates a WatchError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *WatchError {
	return &WatchError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, code Code, message string) *WatchError {
	return &WatchError{Code: code, Message: message, Cause: err}
}

// Is checks whether err carries the given code, unwrapping as needed.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the code from an error chain, or "" if none is present.
func GetCode(err error) Code {
	for err != nil {
		if we, ok := err.(*WatchError); ok {
			return we.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
