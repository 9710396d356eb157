package client

import "errors"

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTooManyRequests   = errors.New("too many requests, try again later")
	ErrNotLoggedIn       = errors.New("not logged in")
)
