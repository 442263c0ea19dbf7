package httprpc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/botfleet/pkg/httprpc"
)

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	t.Run("opens after threshold", func(t *testing.T) {
		t.Parallel()
		cb := httprpc.NewCircuitBreaker(2, 1, time.Hour)

		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.Equal(t, httprpc.CircuitClosed, cb.State())
		cb.RecordFailure()
		assert.Equal(t, httprpc.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets failures while closed", func(t *testing.T) {
		t.Parallel()
		cb := httprpc.NewCircuitBreaker(2, 1, time.Hour)

		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		assert.Equal(t, httprpc.CircuitClosed, cb.State())
	})

	t.Run("half-open probe closes or reopens", func(t *testing.T) {
		t.Parallel()
		cb := httprpc.NewCircuitBreaker(1, 1, 20*time.Millisecond)

		cb.RecordFailure()
		assert.False(t, cb.Allow())

		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, httprpc.CircuitHalfOpen, cb.State())
		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.Equal(t, httprpc.CircuitOpen, cb.State())

		time.Sleep(30 * time.Millisecond)
		assert.True(t, cb.Allow())
		cb.RecordSuccess()
		assert.Equal(t, httprpc.CircuitClosed, cb.State())
	})

	t.Run("state names", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "closed", httprpc.CircuitClosed.String())
		assert.Equal(t, "open", httprpc.CircuitOpen.String())
		assert.Equal(t, "half-open", httprpc.CircuitHalfOpen.String())
		assert.Equal(t, "unknown", httprpc.CircuitState(42).String())
	})
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	exp := httprpc.ExponentialBackoff{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second, Multiplier: 2}
	assert.Equal(t, time.Duration(0), exp.NextInterval(0))
	assert.Equal(t, 100*time.Millisecond, exp.NextInterval(1))
	assert.Equal(t, 400*time.Millisecond, exp.NextInterval(3))
	assert.Equal(t, time.Second, exp.NextInterval(10))

	fixed := httprpc.FixedBackoff{Interval: 5 * time.Millisecond}
	assert.Equal(t, 5*time.Millisecond, fixed.NextInterval(7))

	d := httprpc.DefaultBackoff().NextInterval(1)
	assert.InDelta(t, float64(500*time.Millisecond), float64(d), float64(60*time.Millisecond))
}
