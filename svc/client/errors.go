package client

import "errors"

var (
	ErrClosed            = errors.New("client: adapter closed")
	ErrInitializeFailed  = errors.New("client: failed to initialize driver")
	ErrSendFailed        = errors.New("client: failed to send message")
	ErrLogoutFailed      = errors.New("client: failed to log out")
	ErrNoCredentials     = errors.New("client: no stored credentials")
	ErrCredentialStorage = errors.New("client: credential storage failure")
)
