package session

import "errors"

var (
	ErrAlreadyExists     = errors.New("session: already exists")
	ErrNotFound          = errors.New("session: not found")
	ErrAuthFailure       = errors.New("session: authentication failed")
	ErrInvalidTenant     = errors.New("session: invalid tenant id")
	ErrRegistryClosed    = errors.New("session: registry closed")
	ErrCreateFailed      = errors.New("session: failed to create client")
	ErrChallengeTimeout  = errors.New("session: challenge not answered in time")
	ErrNoCredentialStore = errors.New("session: no credential store configured")
	ErrMissingDependency = errors.New("session: missing dependency")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
