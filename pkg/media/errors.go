package media

import "errors"

var (
	ErrListFailed    = errors.New("media: failed to list media")
	ErrInvalidConfig = errors.New("media: invalid configuration")
	ErrNotReadable   = errors.New("media: item has no content")
)
