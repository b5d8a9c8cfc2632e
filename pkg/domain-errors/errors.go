// Package domainerrors carries coded errors across layers so callers can branch
// on the failure class without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeInvalidInput rejects a single value at construction time.
	CodeInvalidInput Code = "invalid_input"
	// CodeIncomplete means a required staged table is missing or empty.
	CodeIncomplete Code = "incomplete"
	// CodeConfig means the process must refuse to start.
	CodeConfig Code = "config"
	// CodeNotFound means the requested entity is not in the artifact.
	CodeNotFound Code = "not_found"
	CodeInternal Code = "internal"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to err. A nil err yields nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}
