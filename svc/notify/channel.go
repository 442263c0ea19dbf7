package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/botfleet/pkg/broadcast"
	"github.com/dmitrymomot/botfleet/pkg/logger"
)

const defaultBufferSize = 64

// Relay forwards locally published events to other processes.
type Relay interface {
	Forward(ctx context.Context, ev Event) error
}

// Channel is the process-wide notification hub.
type Channel struct {
	hub    *broadcast.MemoryBroadcaster[Event]
	relay  Relay
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Channel)

// WithBufferSize sets the per-subscriber queue length.
func WithBufferSize(n int) Option {
	return func(c *Channel) {
		c.hub = broadcast.NewMemoryBroadcaster[Event](n)
	}
}

func WithRelay(r Relay) Option {
	return func(c *Channel) {
		c.relay = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(opts ...Option) *Channel {
	c := &Channel{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hub == nil {
		c.hub = broadcast.NewMemoryBroadcaster[Event](defaultBufferSize)
	}
	return c
}

// Publish delivers ev locally and hands it to the relay, if any. A relay
// failure is logged and does not affect local delivery.
func (c *Channel) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = c.now()
	}
	if err := c.Deliver(ctx, ev); err != nil {
		return err
	}
	if c.relay != nil {
		if err := c.relay.Forward(ctx, ev); err != nil {
			c.logger.WarnContext(ctx, "failed to relay notification",
				logger.Event(string(ev.Kind)),
				logger.Tenant(ev.Tenant),
				logger.Error(err),
			)
		}
	}
	return nil
}

// Deliver sends ev to local subscribers only.
func (c *Channel) Deliver(ctx context.Context, ev Event) error {
	if err := c.hub.Publish(ctx, ev.Tenant, ev); err != nil {
		if errors.Is(err, broadcast.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Subscribe attaches to the events of one tenant.
func (c *Channel) Subscribe(ctx context.Context, tenant string) *Subscription {
	return c.subscribe(ctx, tenant)
}

// SubscribeAll attaches to the events of every tenant.
func (c *Channel) SubscribeAll(ctx context.Context) *Subscription {
	return c.subscribe(ctx, "")
}

// Subscribers returns the number of attached subscriptions.
func (c *Channel) Subscribers() int {
	return c.hub.Count()
}

// Close detaches every subscriber. Publishing afterwards returns ErrClosed.
func (c *Channel) Close() error {
	return c.hub.Close()
}

func (c *Channel) subscribe(ctx context.Context, tenant string) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)

	var src broadcast.Subscriber[Event]
	if tenant == "" {
		src = c.hub.Subscribe(subCtx)
	} else {
		src = c.hub.Subscribe(subCtx, tenant)
	}

	s := &Subscription{
		id:     src.ID(),
		tenant: tenant,
		events: make(chan Event, 1),
		cancel: cancel,
	}
	s.events <- Event{Kind: KindConnected, Tenant: tenant, At: c.now()}

	go s.forward(subCtx, src.Receive())
	return s
}
