package broadcast

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/notifyrelay/pkg/cache"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

// Event is a named realtime event delivered to a room.
type Event struct {
	Name string         `json:"event"`
	Data map[string]any `json:"data"`
	At   time.Time      `json:"at"`
}

const (
	defaultRoomCapacity = 1024
	defaultRoomBuffer   = 16
)

// Rooms keeps one MemoryBroadcaster per room name, typically one per user.
// Rooms are created on first subscription. When more than the configured
// capacity exist, the least recently used room is closed, which closes its
// subscribers.
type Rooms[T any] struct {
	rooms      *cache.LRUCache[string, *MemoryBroadcaster[T]]
	bufferSize int
	closed     atomic.Bool
	logger     *slog.Logger
}

// RoomsOption configures Rooms.
type RoomsOption func(*roomsOptions)

type roomsOptions struct {
	capacity   int
	bufferSize int
	logger     *slog.Logger
}

// WithRoomCapacity bounds the number of rooms kept open.
func WithRoomCapacity(n int) RoomsOption {
	return func(o *roomsOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithRoomBuffer sets the per-subscriber buffer size.
func WithRoomBuffer(n int) RoomsOption {
	return func(o *roomsOptions) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithRoomsLogger sets the logger used for room lifecycle events.
func WithRoomsLogger(l *slog.Logger) RoomsOption {
	return func(o *roomsOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewRooms creates an empty room registry.
func NewRooms[T any](opts ...RoomsOption) *Rooms[T] {
	o := roomsOptions{
		capacity:   defaultRoomCapacity,
		bufferSize: defaultRoomBuffer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Rooms[T]{
		rooms:      cache.NewLRUCache[string, *MemoryBroadcaster[T]](o.capacity),
		bufferSize: o.bufferSize,
		logger:     o.logger,
	}
	r.rooms.SetEvictCallback(func(room string, b *MemoryBroadcaster[T]) {
		if n := b.SubscriberCount(); n > 0 {
			r.logger.Debug("closing evicted room",
				logger.Component("broadcast"),
				slog.String("room", room),
				slog.Int("subscribers", n))
		}
		_ = b.Close()
	})
	return r
}

// Subscribe joins room. The subscription ends when ctx is done, when the
// subscriber is closed, or when the room is evicted.
func (r *Rooms[T]) Subscribe(ctx context.Context, room string) (Subscriber[T], error) {
	if room == "" {
		return nil, ErrRoomRequired
	}
	if r.closed.Load() {
		return nil, ErrRoomsClosed
	}

	b, _, err := r.rooms.GetOrCreate(room, func() (*MemoryBroadcaster[T], error) {
		return NewMemoryBroadcaster[T](r.bufferSize), nil
	})
	if err != nil {
		return nil, err
	}
	return b.Subscribe(ctx), nil
}

// Emit delivers data to the subscribers of room and returns how many were
// connected. A room nobody joined is not an error.
func (r *Rooms[T]) Emit(ctx context.Context, room string, data T) (int, error) {
	if room == "" {
		return 0, ErrRoomRequired
	}
	if r.closed.Load() {
		return 0, ErrRoomsClosed
	}

	b, ok := r.rooms.Get(room)
	if !ok {
		return 0, nil
	}

	n := b.SubscriberCount()
	if err := b.Broadcast(ctx, Message[T]{Data: data}); err != nil {
		return 0, err
	}
	return n, nil
}

// EmitAll delivers data to every open room.
func (r *Rooms[T]) EmitAll(ctx context.Context, data T) error {
	if r.closed.Load() {
		return ErrRoomsClosed
	}

	var err error
	r.rooms.Range(func(_ string, b *MemoryBroadcaster[T]) bool {
		err = b.Broadcast(ctx, Message[T]{Data: data})
		return err == nil
	})
	return err
}

// Listeners returns the number of subscribers in room.
func (r *Rooms[T]) Listeners(room string) int {
	b, ok := r.rooms.Get(room)
	if !ok {
		return 0
	}
	return b.SubscriberCount()
}

// Len returns the number of open rooms.
func (r *Rooms[T]) Len() int {
	return r.rooms.Len()
}

// Close closes every room. Subsequent calls return ErrRoomsClosed from
// Subscribe, Emit and EmitAll.
func (r *Rooms[T]) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.rooms.Clear()
	return nil
}
