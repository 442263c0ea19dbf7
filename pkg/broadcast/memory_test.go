package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) broadcast.Message[T] {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive():
		require.True(t, ok, "subscriber channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return broadcast.Message[T]{}
}

func assertNoMessage[T any](t *testing.T, sub broadcast.Subscriber[T]) {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive():
		if ok {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBroadcaster_Topics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := broadcast.NewMemoryBroadcaster[string](10)
	defer b.Close()

	subA := b.Subscribe(ctx, "a")
	subB := b.Subscribe(ctx, "b")
	all := b.Subscribe(ctx)
	require.Equal(t, 3, b.Count())
	assert.NotEqual(t, subA.ID(), subB.ID())

	require.NoError(t, b.Publish(ctx, "a", "hello"))

	msg := receive(t, subA)
	assert.Equal(t, "a", msg.Topic)
	assert.Equal(t, "hello", msg.Data)

	msg = receive(t, all)
	assert.Equal(t, "hello", msg.Data)

	assertNoMessage(t, subB)
}

func TestMemoryBroadcaster_NoReplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := broadcast.NewMemoryBroadcaster[int](10)
	defer b.Close()

	require.NoError(t, b.Publish(ctx, "x", 1))

	late := b.Subscribe(ctx, "x")
	assertNoMessage(t, late)

	require.NoError(t, b.Publish(ctx, "x", 2))
	assert.Equal(t, 2, receive(t, late).Data)
}

func TestMemoryBroadcaster_DropsSlowSubscriber(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := broadcast.NewMemoryBroadcaster[int](1)
	defer b.Close()

	slow := b.Subscribe(ctx)
	require.NoError(t, b.Publish(ctx, "t", 1))
	require.NoError(t, b.Publish(ctx, "t", 2)) // buffer full, subscriber dropped

	assert.Eventually(t, func() bool { return b.Count() == 0 }, time.Second, 10*time.Millisecond)

	var got []int
	for msg := range slow.Receive() {
		got = append(got, msg.Data)
	}
	assert.Equal(t, []int{1}, got)
}

func TestMemoryBroadcaster_ContextCancel(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx, "t")
	require.Equal(t, 1, b.Count())

	cancel()
	assert.Eventually(t, func() bool { return b.Count() == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-sub.Receive()
	assert.False(t, ok)
}

func TestMemoryBroadcaster_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := broadcast.NewMemoryBroadcaster[string](4)
	sub := b.Subscribe(ctx)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-sub.Receive()
	assert.False(t, ok)

	assert.ErrorIs(t, b.Publish(ctx, "t", "x"), broadcast.ErrClosed)

	closedSub := b.Subscribe(ctx)
	_, ok = <-closedSub.Receive()
	assert.False(t, ok)
}

func TestMemoryBroadcaster_ConcurrentPublish(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := broadcast.NewMemoryBroadcaster[int](1000)
	defer b.Close()
	sub := b.Subscribe(ctx)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				_ = b.Publish(ctx, "t", i*100+j)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sub.Receive(), 500)
}
