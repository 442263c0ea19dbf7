package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/botfleet/pkg/redis"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		assert.False(t, redis.Config{}.Enabled())
		_, err := redis.Connect(context.Background(), redis.Config{})
		assert.ErrorIs(t, err, redis.ErrDisabled)
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{URL: "http://nope"})
		assert.ErrorIs(t, err, redis.ErrInvalidURL)
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		cfg := redis.Config{
			URL:            "redis://127.0.0.1:1/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		}
		_, err := redis.Connect(context.Background(), cfg)
		assert.ErrorIs(t, err, redis.ErrNotReady)
	})
}
