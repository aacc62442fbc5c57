package broadcast

import (
	"context"
	"sync"
)

// Message wraps one broadcast value.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the message channel. It is closed when the subscriber or
	// its broadcaster is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close releases the subscriber. It is idempotent.
	Close() error
}

// Broadcaster fans messages out to subscribers without blocking on slow ones.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber that lives until ctx is done or it is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every subscriber with buffer space.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close closes every subscriber. Later subscribers are born closed.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch: make(chan Message[T], bufferSize),
	}
}

func (s *subscriber[T]) Receive(context.Context) <-chan Message[T] {
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

// send never blocks: it reports false when the subscriber is closed or full.
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
