package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

const defaultEventBuffer = 32

// Adapter owns one Driver on behalf of a tenant.
// All methods are safe for concurrent use.
type Adapter struct {
	tenant string
	driver Driver

	events chan Event
	done   chan struct{}

	closed      atomic.Bool
	destroyOnce sync.Once
	destroyErr  error
	pumpWg      sync.WaitGroup
}

// NewAdapter wraps driver and starts forwarding its events.
func NewAdapter(tenant string, driver Driver) *Adapter {
	a := &Adapter{
		tenant: tenant,
		driver: driver,
		events: make(chan Event, defaultEventBuffer),
		done:   make(chan struct{}),
	}

	a.pumpWg.Add(1)
	go a.pump()

	return a
}

func (a *Adapter) Tenant() string {
	return a.tenant
}

// Events returns the adapter's event stream. It is closed after Destroy.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Closed reports whether Destroy has been called.
func (a *Adapter) Closed() bool {
	return a.closed.Load()
}

func (a *Adapter) Initialize(ctx context.Context) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if err := a.driver.Initialize(ctx); err != nil {
		return errors.Join(ErrInitializeFailed, err)
	}
	return nil
}

func (a *Adapter) Send(ctx context.Context, to string, m Media) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if err := a.driver.Send(ctx, to, m); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func (a *Adapter) SendText(ctx context.Context, to, text string) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if err := a.driver.SendText(ctx, to, text); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func (a *Adapter) Logout(ctx context.Context) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if err := a.driver.Logout(ctx); err != nil {
		return errors.Join(ErrLogoutFailed, err)
	}
	return nil
}

// Destroy tears the driver down. Only the first call reaches the driver;
// later calls return the first call's result.
func (a *Adapter) Destroy(ctx context.Context) error {
	a.destroyOnce.Do(func() {
		a.closed.Store(true)
		close(a.done)
		a.destroyErr = a.driver.Destroy(ctx)
		a.pumpWg.Wait()
		close(a.events)
	})
	return a.destroyErr
}

func (a *Adapter) pump() {
	defer a.pumpWg.Done()

	src := a.driver.Events()
	for {
		select {
		case <-a.done:
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			select {
			case a.events <- ev:
			case <-a.done:
				return
			}
		}
	}
}
