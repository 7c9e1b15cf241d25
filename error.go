package uidex

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// These are meant to be mapped by outer layers (HTTP status, job error
// detail) without string matching on messages.
const (
	ECONFLICT    = "conflict"    // exclusivity violation (e.g. crawl already running)
	EINVALID     = "invalid"     // validation failed (user input)
	EMALFORMED   = "malformed"   // per-item source data missing required fields
	ETIMEOUT     = "timeout"     // adapter call exceeded its deadline
	EUNAVAILABLE = "unavailable" // adapter fetch failed (transient)
	ENOTFOUND    = "not_found"
	EINTERNAL    = "internal" // storage or other unexpected failure
)

// Error represents an application error with a machine-readable code.
type Error struct {
	// Code is one of the E* constants above.
	Code string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("uidex error: code=%s message=%s", e.Code, e.Message)
}

// Errorf returns a new Error with the given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps err and returns its code, if any.
// Non-application errors report EINTERNAL; nil reports an empty string.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps err and returns its message, if any.
// Non-application errors report a generic message to avoid leaking internals.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
