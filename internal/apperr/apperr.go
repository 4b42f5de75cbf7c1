// Package apperr is the error taxonomy shared by stores, services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindStorageFailure Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidInput
	KindConflict
)

// Code is the machine-readable reason written to clients.
func (k Kind) Code() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	default:
		return "storage_failure"
	}
}

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Reason == "" && t.Err == nil
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrStorage         = &Error{Kind: KindStorageFailure}
)

func Unauthenticated(reason string) error {
	return &Error{Kind: KindUnauthenticated, Reason: reason}
}

func Forbidden(reason string) error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func NotFound(reason string) error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func InvalidInput(reason string) error {
	return &Error{Kind: KindInvalidInput, Reason: reason}
}

func Conflict(reason string) error {
	return &Error{Kind: KindConflict, Reason: reason}
}

// Storage wraps an unexpected storage error. The wrapped error is kept for logs only.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorageFailure, Reason: "internal server error", Err: err}
}

// KindOf reports the kind of err; anything outside the taxonomy is a storage failure.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorageFailure
}

// ReasonOf returns the client-safe reason for err.
func ReasonOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindStorageFailure && ae.Reason != "" {
		return ae.Reason
	}
	if KindOf(err) == KindStorageFailure {
		return "internal server error"
	}
	return KindOf(err).Code()
}
