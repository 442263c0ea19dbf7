package persistence

import "errors"

var (
	ErrUnavailable        = errors.New("persistence: backend unavailable")
	ErrInvalidCredentials = errors.New("persistence: invalid credentials")
	ErrInvalidResponse    = errors.New("persistence: invalid backend response")
	ErrInvalidConfig      = errors.New("persistence: invalid configuration")
)
