package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newBucket(t *testing.T, cfg ratelimiter.Config) (*ratelimiter.Bucket, *ratelimiter.MemoryStore, *clock) {
	t.Helper()
	clk := newClock()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0), ratelimiter.WithClock(clk.Now))
	t.Cleanup(func() { _ = store.Close() })

	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b, store, clk
}

func TestNewBucket(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
	}{
		{"zero capacity", ratelimiter.Config{Capacity: 0, RefillRate: 1, RefillInterval: time.Second}},
		{"zero refill", ratelimiter.Config{Capacity: 1, RefillRate: 0, RefillInterval: time.Second}},
		{"zero interval", ratelimiter.Config{Capacity: 1, RefillRate: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ratelimiter.NewBucket(store, tt.cfg)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimiter.NewBucket(nil, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	})
}

func TestBucket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second}

	t.Run("burst then deny", func(t *testing.T) {
		t.Parallel()
		b, _, _ := newBucket(t, cfg)

		for i := range 3 {
			res, err := b.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, res.Allowed())
			assert.Equal(t, 2-i, res.Remaining)
			assert.Equal(t, 3, res.Limit)
		}

		res, err := b.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, res.Allowed())
	})

	t.Run("denied requests do not drain", func(t *testing.T) {
		t.Parallel()
		b, _, clk := newBucket(t, cfg)

		for range 10 {
			_, err := b.Allow(ctx, "k")
			require.NoError(t, err)
		}
		clk.Advance(time.Second)

		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, 0, res.Remaining)
	})

	t.Run("refill is capped", func(t *testing.T) {
		t.Parallel()
		b, _, clk := newBucket(t, cfg)

		_, err := b.AllowN(ctx, "k", 3)
		require.NoError(t, err)
		clk.Advance(time.Hour)

		res, err := b.Status(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		b, store, _ := newBucket(t, cfg)

		_, err := b.AllowN(ctx, "a", 3)
		require.NoError(t, err)

		res, err := b.Allow(ctx, "b")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, 2, store.Len())
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()
		b, _, _ := newBucket(t, cfg)

		_, err := b.AllowN(ctx, "k", 3)
		require.NoError(t, err)
		require.NoError(t, b.Reset(ctx, "k"))

		res, err := b.Status(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Remaining)
	})

	t.Run("invalid token count", func(t *testing.T) {
		t.Parallel()
		b, _, _ := newBucket(t, cfg)

		_, err := b.AllowN(ctx, "k", 0)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	})

	t.Run("retry after", func(t *testing.T) {
		t.Parallel()
		b, _, clk := newBucket(t, cfg)

		_, err := b.AllowN(ctx, "k", 3)
		require.NoError(t, err)
		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)

		assert.Equal(t, time.Second, res.RetryAfter(clk.Now()))
		assert.Zero(t, ratelimiter.Result{Remaining: 1}.RetryAfter(clk.Now()))
	})
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	b, _, _ := newBucket(t, ratelimiter.Config{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(context.Background(), "shared")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
