package broadcast

import (
	"context"
	"sync"
)

// Message is a single published value together with the topic it was sent to.
type Message[T any] struct {
	Topic string
	Data  T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	ID() string
	Receive() <-chan Message[T]
	Close() error
}

// Broadcaster fans messages out to subscribers by topic.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber for the given topics. With no topics
	// the subscriber receives every message.
	Subscribe(ctx context.Context, topics ...string) Subscriber[T]

	// Publish delivers data to subscribers of topic and to wildcard subscribers.
	Publish(ctx context.Context, topic string, data T) error

	Close() error
}

type subscriber[T any] struct {
	id     string
	topics map[string]struct{}
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](id string, bufferSize int, topics []string) *subscriber[T] {
	s := &subscriber[T]{
		id: id,
		ch: make(chan Message[T], bufferSize),
	}
	if len(topics) > 0 {
		s.topics = make(map[string]struct{}, len(topics))
		for _, t := range topics {
			s.topics[t] = struct{}{}
		}
	}
	return s
}

func (s *subscriber[T]) ID() string {
	return s.id
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

func (s *subscriber[T]) wants(topic string) bool {
	if s.topics == nil {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

// send never blocks; it reports false when the buffer is full or the subscriber is closed.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
