package tasks

import (
	"errors"
	"net/http"
)

// Kind classifies store errors for callers and for HTTP status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// HTTPStatus returns the HTTP status code for a kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by every Store operation. Message is safe to show to the
// user; Err carries internal detail and is never shown.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "incorrect password"}
	ErrValidation   = &Error{Kind: KindValidation, Message: "invalid task"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "task not found"}
)

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
