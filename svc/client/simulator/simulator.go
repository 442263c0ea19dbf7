// Package simulator provides a deterministic in-process client.Driver.
//
// A simulated driver with stored credentials goes straight to authenticated
// and ready on Initialize. Without credentials it emits one challenge and
// waits for Approve, which saves credentials and completes the handshake.
// Tests drive the remaining lifecycle through Reject, Deliver, Disconnect
// and RefreshChallenge.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/botfleet/svc/client"
)

var ErrNotInitialized = errors.New("simulator: driver not initialized")

const eventBuffer = 64

// Sent is an outbound message recorded by the driver.
type Sent struct {
	To    string
	Text  string
	Media *client.Media
}

// Driver is a simulated messaging connection for one tenant.
type Driver struct {
	tenant string
	store  client.CredentialStore

	events chan client.Event
	stop   chan struct{}

	mu          sync.Mutex
	initialized bool
	destroyed   bool
	challenges  int
	sent        []Sent
	sendErr     error
	initErr     error
	logouts     int
	destroys    int
}

// New creates a driver for tenant backed by store.
func New(tenant string, store client.CredentialStore) *Driver {
	return &Driver{
		tenant: tenant,
		store:  store,
		events: make(chan client.Event, eventBuffer),
		stop:   make(chan struct{}),
	}
}

func (d *Driver) Tenant() string {
	return d.tenant
}

func (d *Driver) Events() <-chan client.Event {
	return d.events
}

func (d *Driver) Initialize(ctx context.Context) error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return client.ErrClosed
	}
	if d.initErr != nil {
		err := d.initErr
		d.mu.Unlock()
		return err
	}
	d.initialized = true
	d.mu.Unlock()

	ok, err := d.store.Exists(ctx, d.tenant)
	if err != nil {
		return err
	}
	if ok {
		d.emit(client.Event{Kind: client.EventAuthenticated})
		d.emit(client.Event{Kind: client.EventReady})
		return nil
	}

	d.RefreshChallenge()
	return nil
}

// RefreshChallenge emits a new challenge, as the platform does when the
// previous one expires.
func (d *Driver) RefreshChallenge() {
	d.mu.Lock()
	d.challenges++
	n := d.challenges
	d.mu.Unlock()

	d.emit(client.Event{
		Kind:      client.EventChallenge,
		Challenge: fmt.Sprintf("sim:%s:%d:%s", d.tenant, n, uuid.NewString()),
	})
}

// Approve completes pairing: credentials are stored and the driver reports
// authenticated followed by ready.
func (d *Driver) Approve(ctx context.Context) error {
	if !d.isInitialized() {
		return ErrNotInitialized
	}
	if err := d.store.Save(ctx, d.tenant, []byte(uuid.NewString())); err != nil {
		return err
	}
	d.emit(client.Event{Kind: client.EventAuthenticated})
	d.emit(client.Event{Kind: client.EventReady})
	return nil
}

// Reject reports a failed pairing.
func (d *Driver) Reject(reason string) {
	d.emit(client.Event{Kind: client.EventAuthFailure, Err: errors.New(reason)})
}

// Deliver reports an inbound message.
func (d *Driver) Deliver(from, body string) {
	d.emit(client.Event{
		Kind: client.EventMessage,
		Message: client.Message{
			ID:        uuid.NewString(),
			From:      from,
			Body:      body,
			Timestamp: time.Now(),
		},
	})
}

// Disconnect reports a platform-side disconnect.
func (d *Driver) Disconnect(reason client.DisconnectReason) {
	d.emit(client.Event{Kind: client.EventDisconnected, Reason: reason})
}

func (d *Driver) Send(_ context.Context, to string, m client.Media) error {
	return d.record(Sent{To: to, Media: &m})
}

func (d *Driver) SendText(_ context.Context, to, text string) error {
	return d.record(Sent{To: to, Text: text})
}

func (d *Driver) Logout(ctx context.Context) error {
	d.mu.Lock()
	d.logouts++
	d.mu.Unlock()
	return d.store.Delete(ctx, d.tenant)
}

func (d *Driver) Destroy(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.destroys++
	if !d.destroyed {
		d.destroyed = true
		close(d.stop)
	}
	return nil
}

// FailInitialize makes the next Initialize calls return err.
func (d *Driver) FailInitialize(err error) {
	d.mu.Lock()
	d.initErr = err
	d.mu.Unlock()
}

// FailSends makes subsequent sends return err. A nil err restores sending.
func (d *Driver) FailSends(err error) {
	d.mu.Lock()
	d.sendErr = err
	d.mu.Unlock()
}

// SentMessages returns a copy of every message sent so far.
func (d *Driver) SentMessages() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Sent(nil), d.sent...)
}

// Challenges returns how many challenges were emitted.
func (d *Driver) Challenges() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.challenges
}

func (d *Driver) Destroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

func (d *Driver) Logouts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logouts
}

func (d *Driver) record(s Sent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return client.ErrClosed
	}
	if d.sendErr != nil {
		return d.sendErr
	}
	d.sent = append(d.sent, s)
	return nil
}

func (d *Driver) isInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized && !d.destroyed
}

func (d *Driver) emit(ev client.Event) {
	select {
	case <-d.stop:
	case d.events <- ev:
	}
}
