package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for key, takes tokens from it and
	// returns what is left. A negative remainder means the request is denied.
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (remaining int, resetAt time.Time, err error)

	// Reset forgets key.
	Reset(ctx context.Context, key string) error
}
