package notify

import (
	"context"

	"github.com/dmitrymomot/botfleet/pkg/broadcast"
)

// Subscription is one attached listener.
type Subscription struct {
	id     string
	tenant string
	events chan Event
	cancel context.CancelFunc
}

func (s *Subscription) ID() string {
	return s.id
}

// Tenant returns the tenant filter, empty for global subscriptions.
func (s *Subscription) Tenant() string {
	return s.tenant
}

// Events returns the delivery channel. It is closed when the subscription
// ends, either through Close, context cancellation or falling behind.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() {
	s.cancel()
}

func (s *Subscription) forward(ctx context.Context, src <-chan broadcast.Message[Event]) {
	defer close(s.events)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-src:
			if !ok {
				return
			}
			select {
			case s.events <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}
}
