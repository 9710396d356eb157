// Package common defines shared constants and sentinel errors used across
// the service, transport and client layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Error categories. Specific errors below report their category through
	// errors.Is, so transports only need to match these.
	ErrConfiguration   = errors.New("configuration error")
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")

	// Input errors.
	ErrInvalidInput = NewKindError(ErrValidation, "invalid input")

	// Registration errors.
	ErrDuplicateEmail     = NewKindError(ErrConflict, "email already registered")
	ErrRoleNotConfigured  = NewKindError(ErrConfiguration, "default role is not configured")
	ErrInvalidCredentials = NewKindError(ErrUnauthenticated, "invalid credentials")

	// Token lifecycle errors.
	ErrTokenExpired         = NewKindError(ErrUnauthenticated, "token expired")
	ErrInvalidToken         = NewKindError(ErrUnauthenticated, "invalid token")
	ErrRefreshTokenNotFound = NewKindError(ErrUnauthenticated, "refresh token not found")
	ErrRefreshTokenExpired  = NewKindError(ErrUnauthenticated, "refresh token expired")
	ErrRefreshTokenInvalid  = NewKindError(ErrUnauthenticated, "refresh token invalid")
)

type kindError struct {
	kind error
	msg  string
}

// NewKindError returns a distinct error value that also matches kind
// under errors.Is.
func NewKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }
