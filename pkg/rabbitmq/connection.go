package rabbitmq

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

// QueueState is a point-in-time view of a declared queue.
type QueueState struct {
	Name      string
	Messages  int
	Consumers int
}

// Connection owns one AMQP connection and the single channel opened on it.
// The zero value is a valid, never-connected Connection.
type Connection struct {
	mu      sync.RWMutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	healthy atomic.Bool
	closed  bool
	logger  *slog.Logger
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

// Connect dials the broker, opens the shared channel and declares the topology.
// A failure here means the broker is unreachable or misconfigured and callers are
// expected to abort startup.
func Connect(ctx context.Context, cfg Config, queues []QueuePair, opts ...Option) (*Connection, error) {
	c := &Connection{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Join(ErrFailedToConnect, err)
	}

	if cfg.Prefetch > 0 {
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, errors.Join(ErrFailedToConnect, err)
		}
	}

	if err := DeclareTopology(ch, queues...); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	c.mu.Lock()
	c.conn = conn
	c.ch = ch
	c.mu.Unlock()
	c.healthy.Store(true)

	go c.watch(
		conn.NotifyClose(make(chan *amqp.Error, 1)),
		ch.NotifyClose(make(chan *amqp.Error, 1)),
	)

	c.logger.Info("rabbitmq connected and queues initialized",
		logger.Component("rabbitmq"),
		slog.Any("queues", QueueNames(queues...)))

	return c, nil
}

func dial(ctx context.Context, cfg Config) (*amqp.Connection, error) {
	amqpCfg := amqp.Config{
		Heartbeat: cfg.Heartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(cfg.ConnectTimeout),
	}

	var lastErr error
	for range max(cfg.RetryAttempts, 1) {
		conn, err := amqp.DialConfig(cfg.URL, amqpCfg)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToConnect, lastErr)
}

// watch blocks until the connection or the channel reports closure, then marks the
// connection unhealthy. A nil error means a graceful close.
func (c *Connection) watch(connClosed, chClosed <-chan *amqp.Error) {
	var (
		amqpErr *amqp.Error
		source  string
	)
	select {
	case amqpErr = <-connClosed:
		source = "connection"
	case amqpErr = <-chClosed:
		source = "channel"
	}

	c.healthy.Store(false)

	if amqpErr != nil {
		c.logger.Error("rabbitmq error",
			logger.Component("rabbitmq"),
			slog.String("source", source),
			logger.Error(amqpErr))
		return
	}
	c.logger.Warn("rabbitmq connection closed",
		logger.Component("rabbitmq"),
		slog.String("source", source))
}

// Channel returns the live shared channel.
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ch == nil {
		return nil, ErrNotInitialized
	}
	return c.ch, nil
}

// IsHealthy reports whether the connection is open and the channel is usable.
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.ch == nil {
		return false
	}
	return c.healthy.Load() && !c.conn.IsClosed()
}

// Publish sends msg to queue through the default exchange.
func (c *Connection) Publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, msg)
}

// Consume starts a manual-ack subscription identified by consumerTag.
func (c *Connection) Consume(queue, consumerTag string) (<-chan amqp.Delivery, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}
	return ch.Consume(queue, consumerTag, false, false, false, false, nil)
}

// Cancel stops the subscription identified by consumerTag without closing the channel.
func (c *Connection) Cancel(consumerTag string) error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	return ch.Cancel(consumerTag, false)
}

// Inspect returns the depth and consumer count of an existing queue. Each call
// uses its own short-lived channel, leaving the shared one untouched when the
// queue is missing.
func (c *Connection) Inspect(queue string) (QueueState, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return QueueState{}, ErrNotInitialized
	}
	return InspectQueue(func() (Inspector, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}, queue)
}

// Close closes the channel, then the connection. It is safe to call on a
// never-connected value and more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.healthy.Store(false)

	var errs []error
	if c.ch != nil {
		if err := c.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}

	if c.logger != nil && c.conn != nil {
		c.logger.Info("rabbitmq connection closed", logger.Component("rabbitmq"))
	}

	return errors.Join(errs...)
}
