// Package pipeline defines the central data types shared by every adapter:
// the fail-code vocabulary, the AdapterError type used to carry it across
// call boundaries, and the Ok/Fail result shapes the dispatcher returns.
package pipeline

import "fmt"

// AdapterError is a structured error carrying a machine-readable fail code
// (one of the ALL_CAPS_SNAKE codes in the error taxonomy) alongside an
// operator-readable message. It implements error and supports unwrapping via
// errors.Is and errors.As so callers can test against underlying causes
// without parsing the message string.
type AdapterError struct {
	// Code is the machine fail code, e.g. "ARCHIVE_FORMAT_MISMATCH".
	Code string

	// Message is a single-sentence, operator-readable description. It MUST
	// NOT contain paths, user identifiers, wall-clock values, or other
	// machine-specific data (spec §7).
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the formatted error message. If an underlying error is
// present it is appended, separated by a colon.
func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As to
// traverse the error chain.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewFail builds an AdapterError for the given fail code and message with no
// underlying cause.
func NewFail(code, message string) *AdapterError {
	return &AdapterError{Code: code, Message: message}
}

// NewFailWrap builds an AdapterError for the given fail code and message,
// wrapping an underlying cause.
func NewFailWrap(code, message string, err error) *AdapterError {
	return &AdapterError{Code: code, Message: message, Err: err}
}
