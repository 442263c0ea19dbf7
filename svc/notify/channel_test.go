package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/svc/notify"
)

func receive(t *testing.T, s *notify.Subscription) notify.Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return notify.Event{}
	}
}

func assertNothing(t *testing.T, s *notify.Subscription) {
	t.Helper()
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannel_GreetsOnAttach(t *testing.T) {
	t.Parallel()

	ch := notify.New()
	defer ch.Close()

	sub := ch.SubscribeAll(context.Background())
	defer sub.Close()

	ev := receive(t, sub)
	assert.Equal(t, notify.KindConnected, ev.Kind)
	assert.False(t, ev.At.IsZero())
}

func TestChannel_RoutesByTenant(t *testing.T) {
	t.Parallel()

	ch := notify.New()
	defer ch.Close()
	ctx := context.Background()

	acme := ch.Subscribe(ctx, "acme")
	other := ch.Subscribe(ctx, "other")
	all := ch.SubscribeAll(ctx)
	for _, s := range []*notify.Subscription{acme, other, all} {
		require.Equal(t, notify.KindConnected, receive(t, s).Kind)
	}

	require.NoError(t, ch.Publish(ctx, notify.Challenge("acme", "data:image/png;base64,AAA")))

	got := receive(t, acme)
	assert.Equal(t, notify.KindChallenge, got.Kind)
	assert.Equal(t, "acme", got.Tenant)
	assert.Equal(t, "data:image/png;base64,AAA", got.Artifact)

	assert.Equal(t, notify.KindChallenge, receive(t, all).Kind)
	assertNothing(t, other)
}

func TestChannel_NoReplay(t *testing.T) {
	t.Parallel()

	ch := notify.New()
	defer ch.Close()
	ctx := context.Background()

	require.NoError(t, ch.Publish(ctx, notify.Ready("acme")))

	sub := ch.Subscribe(ctx, "acme")
	assert.Equal(t, notify.KindConnected, receive(t, sub).Kind)
	assertNothing(t, sub)
}

func TestChannel_SubscriptionLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("close ends the stream", func(t *testing.T) {
		t.Parallel()
		ch := notify.New()
		defer ch.Close()

		sub := ch.SubscribeAll(context.Background())
		receive(t, sub)
		sub.Close()

		select {
		case _, ok := <-sub.Events():
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("subscription not closed")
		}
		assert.Eventually(t, func() bool { return ch.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("slow subscriber is detached", func(t *testing.T) {
		t.Parallel()
		ch := notify.New(notify.WithBufferSize(1))
		defer ch.Close()
		ctx := context.Background()

		sub := ch.Subscribe(ctx, "acme")
		for range 10 {
			require.NoError(t, ch.Publish(ctx, notify.Connecting("acme")))
		}
		assert.Eventually(t, func() bool { return ch.Subscribers() == 0 }, time.Second, 10*time.Millisecond)

		// drain whatever made it through, then the stream must end
		deadline := time.After(time.Second)
		for {
			select {
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("detached subscription was not closed")
			}
		}
	})

	t.Run("publish after close", func(t *testing.T) {
		t.Parallel()
		ch := notify.New()
		require.NoError(t, ch.Close())
		assert.ErrorIs(t, ch.Publish(context.Background(), notify.Ready("acme")), notify.ErrClosed)
	})
}

type recordingRelay struct {
	events chan notify.Event
}

func (r *recordingRelay) Forward(_ context.Context, ev notify.Event) error {
	r.events <- ev
	return nil
}

func TestChannel_ForwardsToRelay(t *testing.T) {
	t.Parallel()

	relay := &recordingRelay{events: make(chan notify.Event, 1)}
	ch := notify.New(notify.WithRelay(relay))
	defer ch.Close()

	require.NoError(t, ch.Publish(context.Background(), notify.Disconnected("acme")))

	select {
	case ev := <-relay.events:
		assert.Equal(t, notify.KindDisconnected, ev.Kind)
		assert.Equal(t, "acme", ev.Tenant)
	case <-time.After(time.Second):
		t.Fatal("relay not called")
	}
}
