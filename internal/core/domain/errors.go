package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential     = errors.New("missing credential")
	ErrInvalidCredential     = errors.New("invalid credentials")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("username or email already registered")
	ErrTokenInvalid          = errors.New("invalid token")
	ErrTokenMismatch         = errors.New("refresh token mismatch")
	ErrAuthRequired          = errors.New("authentication required")
	ErrUploadFailed          = errors.New("upload failed")
	ErrAssetStoreUnavailable = errors.New("asset store unavailable")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInternal              = errors.New("internal failure")
)

// Error binds one of the sentinel kinds above to a client-safe message.
// Status, when non-zero, overrides the status code the HTTP layer would
// otherwise derive from Kind.
type Error struct {
	Kind    error
	Message string
	Status  int
	cause   error
}

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind that also records the internal cause.
func Wrap(kind error, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithStatus returns e with an explicit status code.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}
