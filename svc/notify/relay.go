package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/botfleet/pkg/logger"
)

// DefaultRelayChannel is the Redis channel used when none is configured.
const DefaultRelayChannel = "botfleet:notifications"

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// Deliverer receives events coming from peer processes.
type Deliverer interface {
	Deliver(ctx context.Context, ev Event) error
}

// RedisRelay mirrors events through Redis pub/sub. Each relay has a random
// origin id so it ignores its own messages.
type RedisRelay struct {
	rdb     redis.UniversalClient
	channel string
	origin  string
	logger  *slog.Logger
}

type RelayOption func(*RedisRelay)

func WithRelayChannel(name string) RelayOption {
	return func(r *RedisRelay) {
		if name != "" {
			r.channel = name
		}
	}
}

func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *RedisRelay) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRedisRelay(rdb redis.UniversalClient, opts ...RelayOption) *RedisRelay {
	r := &RedisRelay{
		rdb:     rdb,
		channel: DefaultRelayChannel,
		origin:  uuid.NewString(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRelay) Origin() string {
	return r.origin
}

func (r *RedisRelay) Forward(ctx context.Context, ev Event) error {
	payload, err := encodeEnvelope(r.origin, ev)
	if err != nil {
		return errors.Join(ErrRelayFailed, err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return errors.Join(ErrRelayFailed, err)
	}
	return nil
}

// Run delivers events published by peers to target until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context, target Deliverer) error {
	ps := r.rdb.Subscribe(ctx, r.channel)
	defer func() { _ = ps.Close() }()

	if _, err := ps.Receive(ctx); err != nil {
		return errors.Join(ErrRelayFailed, err)
	}

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			origin, ev, err := decodeEnvelope([]byte(msg.Payload))
			if err != nil {
				r.logger.WarnContext(ctx, "dropping malformed relayed event", logger.Error(err))
				continue
			}
			if origin == r.origin {
				continue
			}
			if err := target.Deliver(ctx, ev); err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				r.logger.WarnContext(ctx, "failed to deliver relayed event",
					logger.Tenant(ev.Tenant),
					logger.Error(err),
				)
			}
		}
	}
}

func encodeEnvelope(origin string, ev Event) ([]byte, error) {
	return json.Marshal(envelope{Origin: origin, Event: ev})
}

func decodeEnvelope(data []byte) (string, Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", Event{}, errors.Join(ErrInvalidEvent, err)
	}
	if env.Origin == "" || env.Event.Kind == "" {
		return "", Event{}, ErrInvalidEvent
	}
	return env.Origin, env.Event, nil
}
