// Package apperrors defines the error taxonomy shared by the services and the HTTP layer.
//
// Validation, NotFound, Unauthorized, Forbidden, Conflict and TooManyRequests carry
// messages that are safe to show to the caller. Unexpected and ServiceUnavailable wrap
// persistence and external-service failures; their messages stay generic and the
// wrapped cause is only ever logged.
package apperrors

import (
	"errors"
	"fmt"
)

// base holds the fields common to every error type in this package.
type base struct {
	message string
	err     error
}

func (b base) error() string {
	if b.err == nil {
		return b.message
	}
	return fmt.Sprintf("%s: %v", b.message, b.err)
}

// Message returns the caller-facing message without the wrapped cause.
func (b base) Message() string {
	return b.message
}

// Unwrap exposes the underlying error to support errors.Is / errors.As.
func (b base) Unwrap() error {
	return b.err
}

// Validation reports bad or missing input the caller can correct.
type Validation struct {
	base
	Field string
}

func (v Validation) Error() string { return v.error() }

// NewValidation creates a Validation error for the given input field.
// field may be empty when the problem is not tied to a single field.
func NewValidation(field, message string, err ...error) Validation {
	return Validation{
		base:  base{message: message, err: errors.Join(err...)},
		Field: field,
	}
}

// NotFound reports an unknown identifier.
type NotFound struct{ base }

func (n NotFound) Error() string { return n.error() }

// NewNotFound creates a NotFound error.
func NewNotFound(message string, err ...error) NotFound {
	return NotFound{base{message: message, err: errors.Join(err...)}}
}

// Unauthorized reports a request without a valid session.
type Unauthorized struct{ base }

func (u Unauthorized) Error() string { return u.error() }

// NewUnauthorized creates an Unauthorized error.
func NewUnauthorized(message string, err ...error) Unauthorized {
	return Unauthorized{base{message: message, err: errors.Join(err...)}}
}

// Forbidden reports an authenticated caller whose role is insufficient.
type Forbidden struct{ base }

func (f Forbidden) Error() string { return f.error() }

// NewForbidden creates a Forbidden error.
func NewForbidden(message string, err ...error) Forbidden {
	return Forbidden{base{message: message, err: errors.Join(err...)}}
}

// Conflict reports a request that clashes with the current state of a record.
type Conflict struct{ base }

func (c Conflict) Error() string { return c.error() }

// NewConflict creates a Conflict error.
func NewConflict(message string, err ...error) Conflict {
	return Conflict{base{message: message, err: errors.Join(err...)}}
}

// TooManyRequests reports a caller that exceeded a rate limit.
type TooManyRequests struct{ base }

func (t TooManyRequests) Error() string { return t.error() }

// NewTooManyRequests creates a TooManyRequests error.
func NewTooManyRequests(message string, err ...error) TooManyRequests {
	return TooManyRequests{base{message: message, err: errors.Join(err...)}}
}

// Unexpected represents a persistence or other internal failure.
type Unexpected struct{ base }

func (u Unexpected) Error() string { return u.error() }

// NewUnexpected creates a new Unexpected error with the provided message.
func NewUnexpected(message string, err ...error) Unexpected {
	return Unexpected{base{message: message, err: errors.Join(err...)}}
}

// ServiceUnavailable represents a failure of an external collaborator
// such as the mail provider or the payment gateway.
type ServiceUnavailable struct{ base }

func (su ServiceUnavailable) Error() string { return su.error() }

// NewServiceUnavailable creates a new ServiceUnavailable error with the provided message.
func NewServiceUnavailable(message string, err ...error) ServiceUnavailable {
	return ServiceUnavailable{base{message: message, err: errors.Join(err...)}}
}

// IsNotFound reports whether err is, or wraps, a NotFound error.
func IsNotFound(err error) bool {
	var nf NotFound
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a Validation error.
func IsValidation(err error) bool {
	var v Validation
	return errors.As(err, &v)
}
