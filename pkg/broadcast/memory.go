package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryBroadcaster drops messages for slow consumers rather than blocking the
// publisher. A subscriber whose buffer is full is removed, so every attached
// subscriber gets each message at most once and never a replay.
// All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewMemoryBroadcaster creates an in-memory broadcaster. bufferSize is the
// per-subscriber channel capacity, with a minimum of 1.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		done:        make(chan struct{}),
	}
}

// Subscribe creates a subscriber that is removed when ctx is cancelled.
// On a closed broadcaster it returns an already closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context, topics ...string) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](uuid.NewString(), b.bufferSize, topics)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.done:
			}
		}()
	}

	return sub
}

// Publish sends data to every matching subscriber without blocking.
// It returns nil even when some subscribers were dropped.
func (b *MemoryBroadcaster[T]) Publish(ctx context.Context, topic string, data T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	msg := Message[T]{Topic: topic, Data: data}
	for sub := range b.subscribers {
		if !sub.wants(topic) {
			continue
		}
		if !sub.send(msg) {
			// Removal needs the write lock, which is held as a read lock here.
			go b.unsubscribe(sub)
		}
	}

	return nil
}

// Count returns the number of attached subscribers.
func (b *MemoryBroadcaster[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscribers.
// It is safe to call more than once.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return nil
	}

	b.closed = true
	close(b.done)
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
