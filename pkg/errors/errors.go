package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Messages are operator-facing;
// underlying causes stay wrapped and never reach the UI verbatim.
var (
	ErrScannerUnavailable = New("SCANNER_UNAVAILABLE", http.StatusServiceUnavailable, "the tag scanner is not available on this device")
	ErrScanTimeout        = New("SCAN_TIMEOUT", http.StatusRequestTimeout, "no tag was detected, please try again")
	ErrScanHardware       = New("SCAN_HARDWARE_ERROR", http.StatusBadGateway, "the tag scanner reported an error")
	ErrLookupFailed       = New("ASSIGNMENT_LOOKUP_FAILED", http.StatusBadGateway, "could not look up the scanned tag")
	ErrCommitFailed       = New("ASSIGNMENT_COMMIT_FAILED", http.StatusBadGateway, "could not save the tag assignment")
	ErrInvalidSelection   = New("INVALID_SELECTION", http.StatusBadRequest, "a scanned tag and a selected person are required")
	ErrAuthMissing        = New("AUTH_MISSING", http.StatusUnauthorized, "a staff login is required before scanning")
	ErrInvalidTagFormat   = New("INVALID_TAG_FORMAT", http.StatusBadRequest, "the scanned tag has an unsupported format")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
