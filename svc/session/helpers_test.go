package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/svc/client"
	"github.com/dmitrymomot/botfleet/svc/client/simulator"
	"github.com/dmitrymomot/botfleet/svc/notify"
	"github.com/dmitrymomot/botfleet/svc/persistence"
	"github.com/dmitrymomot/botfleet/svc/session"
)

const waitFor = 2 * time.Second

type textRenderer struct{}

func (textRenderer) DataURL(content string) (string, error) {
	return "qr:" + content, nil
}

type fixture struct {
	fs       afero.Fs
	store    *client.LocalCredentialStore
	fleet    *simulator.Fleet
	gateway  *persistence.Memory
	channel  *notify.Channel
	events   *notify.Subscription
	registry *session.Registry
}

func newFixture(t *testing.T, opts ...session.Option) *fixture {
	t.Helper()

	f := &fixture{fs: afero.NewMemMapFs()}
	f.store = client.NewLocalCredentialStore(f.fs, "/auth")
	f.fleet = simulator.NewFleet(f.store)
	f.gateway = persistence.NewMemory()
	f.channel = notify.New()
	f.events = f.channel.SubscribeAll(context.Background())
	require.Equal(t, notify.KindConnected, (<-f.events.Events()).Kind)

	base := []session.Option{
		session.WithRenderer(textRenderer{}),
		session.WithCredentialStore(f.store),
	}
	reg, err := session.NewRegistry(f.fleet.Factory(), f.gateway, f.channel, append(base, opts...)...)
	require.NoError(t, err)
	f.registry = reg

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = reg.Close(ctx)
		_ = f.channel.Close()
	})
	return f
}

// pair stores credentials so the tenant's driver skips the challenge.
func (f *fixture) pair(t *testing.T, tenant string) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), tenant, []byte("paired")))
}

func (f *fixture) driver(t *testing.T, tenant string) *simulator.Driver {
	t.Helper()
	d, ok := f.fleet.Driver(tenant)
	require.True(t, ok, "no driver for %s", tenant)
	return d
}

// next returns the next notification, failing the test on timeout.
func (f *fixture) next(t *testing.T) notify.Event {
	t.Helper()
	select {
	case ev, ok := <-f.events.Events():
		require.True(t, ok, "notification stream closed")
		return ev
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for notification")
		return notify.Event{}
	}
}

// expect consumes notifications and asserts their kinds for tenant in order.
func (f *fixture) expect(t *testing.T, tenant string, kinds ...notify.Kind) {
	t.Helper()
	for _, want := range kinds {
		ev := f.next(t)
		require.Equal(t, want, ev.Kind, "unexpected notification for %s", ev.Tenant)
		require.Equal(t, tenant, ev.Tenant)
	}
}

// quiet asserts that no notification arrives for a short while.
func (f *fixture) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-f.events.Events():
		t.Fatalf("unexpected notification %s for %s", ev.Kind, ev.Tenant)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitState(t *testing.T, h *session.Handle, want session.State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.State() == want }, waitFor, 5*time.Millisecond,
		"handle %s never reached %s (at %s)", h.Tenant(), want, h.State())
}

func waitDone(t *testing.T, h *session.Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatalf("handle %s did not stop", h.Tenant())
	}
}
