package realtime

import "errors"

var (
	ErrUnauthorized = errors.New("realtime: unauthorized")
	ErrBadRequest   = errors.New("realtime: bad request")
	ErrRateLimited  = errors.New("realtime: too many requests")
)
