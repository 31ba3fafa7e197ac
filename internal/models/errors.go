package models

import (
	"errors"
	"fmt"
)

// Error kinds. Compare with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrAuthentication    = errors.New("authentication error")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrOTPExpired        = errors.New("otp has expired")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrUnexpected        = errors.New("unexpected error")
)

// Error carries a kind, a message safe to show to clients and an optional cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func Validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...), nil)
}

func Unauthenticated(msg string) error {
	return newError(ErrAuthentication, msg, nil)
}

func Forbidden(msg string) error {
	return newError(ErrForbidden, msg, nil)
}

func NotFound(msg string) error {
	return newError(ErrNotFound, msg, nil)
}

func Expired(msg string) error {
	return newError(ErrOTPExpired, msg, nil)
}

func InvalidCredential(msg string) error {
	return newError(ErrInvalidCredential, msg, nil)
}

// Unexpected wraps a store or IO failure. The cause is logged, never rendered.
func Unexpected(msg string, cause error) error {
	return newError(ErrUnexpected, msg, cause)
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
