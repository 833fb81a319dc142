/*
Package errs provides custom error types and application-level error code constants.

CustomError carries a business code, a client-safe message and the HTTP status
used when it crosses the transport boundary.
*/
package errs

import (
	"errors"
	"fmt"

	"bookshelf/internal/pkg/logx"
)

// CustomError is the error type returned by the operation layer for every
// failure a caller is expected to distinguish.
type CustomError struct {
	// Code is the business error code (see constants).
	Code int

	// Message is the client-facing description.
	Message string

	// Status is the HTTP status used by the transport layer.
	Status int

	cause error
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("error code %d (HTTP %d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *CustomError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a *CustomError with the same code, so callers
// can write errors.Is(err, errs.NewError(errs.ErrConflict)).
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError builds a *CustomError from a registered code. Unknown codes are
// logged and degrade to ErrUnknown.
func NewError(code int) *CustomError {
	tmpl, ok := errorMap[code]
	if !ok {
		logx.Error(fmt.Errorf("unregistered error code %d", code), "errs: unknown error code requested")
		tmpl = errorMap[ErrUnknown]
	}
	e := tmpl
	return &e
}

// Wrap is NewError with an internal cause attached. The cause is never sent to clients.
func Wrap(code int, cause error) *CustomError {
	e := NewError(code)
	e.cause = cause
	return e
}

// HasCode reports whether err carries the given business code.
func HasCode(err error, code int) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Code == code
}

// From converts any error to a *CustomError. Errors that are not already
// classified become ErrUnknown and are logged with their cause.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	logx.Error(err, "errs: unclassified error surfaced as unknown")
	return Wrap(ErrUnknown, err)
}
