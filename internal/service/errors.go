// Package service holds the GoalTime domain logic: authentication, user
// administration, stadiums and sessions.  Services talk to storage through
// small interfaces and report failures as *Error values whose Kind the
// HTTP layer maps to a status code.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind int

const (
	KindValidation Kind = iota + 1 // malformed or rule-breaking input
	KindConflict                   // clashes with existing state
	KindAuth                       // caller could not be authenticated
	KindAuthz                      // caller is authenticated but not allowed
	KindNotFound                   // referenced entity does not exist
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindAuthz:
		return "authz"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Error is a classified domain error carrying a client-safe message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches the kind sentinels below, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrAuthz      = &Error{Kind: KindAuthz}
	ErrNotFound   = &Error{Kind: KindNotFound}
)

func newError(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) error { return newError(KindValidation, format, args...) }

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) error { return newError(KindConflict, format, args...) }

// Auth builds a KindAuth error.
func Auth(format string, args ...any) error { return newError(KindAuth, format, args...) }

// Authz builds a KindAuthz error.
func Authz(format string, args ...any) error { return newError(KindAuthz, format, args...) }

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) error { return newError(KindNotFound, format, args...) }

// KindOf returns the Kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
