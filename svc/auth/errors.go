package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrMissingSecret      = errors.New("auth: signing secret is required")
	ErrSigningFailed      = errors.New("auth: failed to sign token")
)
