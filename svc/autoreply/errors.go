package autoreply

import "errors"

var (
	ErrMediaUnavailable = errors.New("autoreply: media unavailable")
	ErrNilSource        = errors.New("autoreply: media source is required")
)
