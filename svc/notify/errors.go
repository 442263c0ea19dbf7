package notify

import "errors"

var (
	ErrClosed       = errors.New("notify: channel closed")
	ErrRelayFailed  = errors.New("notify: relay failed")
	ErrInvalidEvent = errors.New("notify: invalid relayed event")
)
