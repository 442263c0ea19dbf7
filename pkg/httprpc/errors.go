package httprpc

import "errors"

var (
	ErrInvalidURL       = errors.New("httprpc: invalid endpoint URL")
	ErrRequestFailed    = errors.New("httprpc: request failed")
	ErrPermanentFailure = errors.New("httprpc: permanent failure")
	ErrTemporaryFailure = errors.New("httprpc: temporary failure")
	ErrTimeout          = errors.New("httprpc: request timeout")
	ErrCircuitOpen      = errors.New("httprpc: circuit breaker is open")
	ErrDecode           = errors.New("httprpc: failed to decode response")
)
