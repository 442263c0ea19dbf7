package redis

import "errors"

var (
	ErrDisabled          = errors.New("redis: no connection URL configured")
	ErrInvalidURL        = errors.New("redis: invalid connection URL")
	ErrNotReady          = errors.New("redis: not ready after retries")
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
