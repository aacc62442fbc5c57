package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

// retryTimer is the part of *time.Timer the retry registry needs.
type retryTimer interface {
	Stop() bool
}

// Consumer subscribes to a single queue and applies the retry/dead-letter policy
// to every delivery.
type Consumer struct {
	broker    Broker
	publisher Republisher
	queue     string
	handler   Handler
	tag       string
	sem       chan struct{}

	// Configuration
	maxRetries       int
	baseDelay        time.Duration
	handlerTimeout   time.Duration
	republishTimeout time.Duration
	deadLetter       DeadLetterFunc
	afterFunc        func(time.Duration, func()) retryTimer
	logger           *slog.Logger

	// State management
	mu     sync.Mutex
	cancel context.CancelFunc

	retryMu  sync.Mutex
	retrySeq uint64
	retries  map[uint64]retryTimer
}

// NewConsumer creates a consumer for queue. Retries are re-published through publisher.
func NewConsumer(broker Broker, publisher Republisher, queue string, handler Handler, opts ...ConsumerOption) (*Consumer, error) {
	if broker == nil {
		return nil, ErrBrokerNil
	}
	if publisher == nil {
		return nil, ErrPublisherNil
	}
	if queue == "" {
		return nil, ErrQueueNameEmpty
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}

	// Default options
	options := &consumerOptions{
		maxRetries:       3,
		baseDelay:        time.Second,
		consumerTag:      queue + "-" + uuid.NewString(),
		concurrency:      10,
		handlerTimeout:   30 * time.Second,
		republishTimeout: 10 * time.Second,
		logger:           slog.Default(),
		afterFunc: func(d time.Duration, f func()) retryTimer {
			return time.AfterFunc(d, f)
		},
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Consumer{
		broker:           broker,
		publisher:        publisher,
		queue:            queue,
		handler:          handler,
		tag:              options.consumerTag,
		sem:              make(chan struct{}, options.concurrency),
		maxRetries:       options.maxRetries,
		baseDelay:        options.baseDelay,
		handlerTimeout:   options.handlerTimeout,
		republishTimeout: options.republishTimeout,
		deadLetter:       options.deadLetter,
		afterFunc:        options.afterFunc,
		logger:           options.logger,
		retries:          make(map[uint64]retryTimer),
	}, nil
}

// Queue returns the name of the consumed queue.
func (c *Consumer) Queue() string {
	return c.queue
}

// Tag returns the broker consumer tag.
func (c *Consumer) Tag() string {
	return c.tag
}

// Start subscribes to the queue and processes deliveries in the background.
// The processing loop ends when ctx is done, Stop is called or the broker closes
// the delivery channel.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return ErrConsumerRunning
	}

	deliveries, err := c.broker.Consume(c.queue, c.tag)
	if err != nil {
		return errors.Join(ErrSubscribeFailed, fmt.Errorf("queue %q: %w", c.queue, err))
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.run(loopCtx, deliveries)

	c.logger.Info("consumer started",
		logger.Component("consumer"),
		logger.Queue(c.queue),
		logger.ConsumerTag(c.tag),
		logger.MaxRetries(c.maxRetries),
		slog.Int("max_concurrent", cap(c.sem)))

	return nil
}

// Stop cancels the broker subscription. Handlers already running are not awaited
// and pending retries stay scheduled; see CancelRetries.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return ErrConsumerNotRunning
	}
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	err := c.broker.Cancel(c.tag)
	cancel()

	c.logger.Info("consumer stopped",
		logger.Component("consumer"),
		logger.Queue(c.queue),
		logger.ConsumerTag(c.tag))

	if err != nil {
		return fmt.Errorf("cancel consumer %q: %w", c.tag, err)
	}
	return nil
}

// Run starts the consumer and returns a function suitable for errgroup.
// On ctx cancellation it stops the subscription and drops pending retries.
func (c *Consumer) Run(ctx context.Context) func() error {
	return func() error {
		if err := c.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		if err := c.Stop(); err != nil && !errors.Is(err, ErrConsumerNotRunning) {
			c.logger.Warn("failed to cancel consumer",
				logger.Component("consumer"),
				logger.ConsumerTag(c.tag),
				logger.Error(err))
		}

		if n := c.CancelRetries(); n > 0 {
			c.logger.Info("pending retries cancelled",
				logger.Component("consumer"),
				logger.Queue(c.queue),
				slog.Int("count", n))
		}

		return nil
	}
}

// CancelRetries stops every pending retry timer and returns how many were stopped.
func (c *Consumer) CancelRetries() int {
	c.retryMu.Lock()
	defer c.retryMu.Unlock()

	n := 0
	for tok, t := range c.retries {
		if t.Stop() {
			n++
		}
		delete(c.retries, tok)
	}
	return n
}

// PendingRetries reports how many retries are scheduled and not yet fired.
func (c *Consumer) PendingRetries() int {
	c.retryMu.Lock()
	defer c.retryMu.Unlock()
	return len(c.retries)
}

func (c *Consumer) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed",
					logger.Component("consumer"),
					logger.Queue(c.queue),
					logger.ConsumerTag(c.tag))
				return
			}

			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				// Unacked; the broker redelivers it once the channel goes away.
				return
			}

			go func() {
				defer func() { <-c.sem }()
				c.process(d)
			}()
		}
	}
}

// process applies the retry policy to one delivery. Exactly one of ack or
// reject is issued per delivery.
func (c *Consumer) process(d amqp.Delivery) {
	start := time.Now()
	attempt := RetryAttempt(d.Headers)
	next := attempt + 1

	if !json.Valid(d.Body) {
		c.logger.Error("undecodable message, rejecting to dead letter queue",
			logger.Component("consumer"),
			logger.Queue(c.queue),
			logger.MessageID(d.MessageId))
		if err := d.Reject(false); err != nil {
			c.logger.Error("failed to reject message",
				logger.Component("consumer"),
				logger.Queue(c.queue),
				logger.Error(err))
		}
		return
	}

	err := c.invoke(d.Body)
	duration := time.Since(start)

	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack message",
				logger.Component("consumer"),
				logger.Queue(c.queue),
				logger.MessageID(d.MessageId),
				logger.Error(ackErr))
			return
		}
		c.logger.Debug("message processed",
			logger.Component("consumer"),
			logger.Queue(c.queue),
			logger.MessageID(d.MessageId),
			logger.RetryAttempt(attempt),
			logger.Duration(duration))
		return
	}

	c.logger.Error("handler failed",
		logger.Component("consumer"),
		logger.Queue(c.queue),
		logger.MessageID(d.MessageId),
		slog.String("handler", c.handler.Name()),
		logger.RetryAttempt(attempt),
		logger.MaxRetries(c.maxRetries),
		logger.Duration(duration),
		logger.Error(err))

	if next <= c.maxRetries {
		c.retry(d, next)
		return
	}

	c.moveToDeadLetter(d, next, err)
}

func (c *Consumer) invoke(body []byte) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrHandlerPanic, fmt.Errorf("%v", r))
		}
	}()

	return c.handler.Handle(ctx, json.RawMessage(body))
}

// retry acknowledges d and schedules its body for re-publish with attempt next.
func (c *Consumer) retry(d amqp.Delivery, next int) {
	if err := d.Ack(false); err != nil {
		// Still unacked: the broker redelivers it, so no retry is scheduled.
		c.logger.Error("failed to ack message before retry",
			logger.Component("consumer"),
			logger.Queue(c.queue),
			logger.MessageID(d.MessageId),
			logger.Error(err))
		return
	}

	delay := Backoff(c.baseDelay, next)
	body := bytes.Clone(d.Body)
	c.schedule(delay, func() {
		c.republish(body, next)
	})

	c.logger.Warn("retry scheduled",
		logger.Component("consumer"),
		logger.Queue(c.queue),
		logger.MessageID(d.MessageId),
		logger.RetryAttempt(next),
		logger.MaxRetries(c.maxRetries),
		logger.Delay(delay))
}

func (c *Consumer) schedule(delay time.Duration, fn func()) {
	c.retryMu.Lock()
	defer c.retryMu.Unlock()

	c.retrySeq++
	tok := c.retrySeq
	c.retries[tok] = c.afterFunc(delay, func() {
		if c.release(tok) {
			fn()
		}
	})
}

// release removes tok from the registry. False means the retry was cancelled.
func (c *Consumer) release(tok uint64) bool {
	c.retryMu.Lock()
	defer c.retryMu.Unlock()

	if _, ok := c.retries[tok]; !ok {
		return false
	}
	delete(c.retries, tok)
	return true
}

func (c *Consumer) republish(body []byte, attempt int) {
	if !c.broker.IsHealthy() {
		c.logger.Warn("broker unavailable, retry dropped",
			logger.Component("consumer"),
			logger.Queue(c.queue),
			logger.RetryAttempt(attempt))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.republishTimeout)
	defer cancel()

	if err := c.publisher.PublishAttempt(ctx, c.queue, body, attempt); err != nil {
		c.logger.Error("failed to re-publish message",
			logger.Component("consumer"),
			logger.Queue(c.queue),
			logger.RetryAttempt(attempt),
			logger.Error(err))
	}
}

func (c *Consumer) moveToDeadLetter(d amqp.Delivery, attempts int, cause error) {
	if c.deadLetter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.handlerTimeout)
		err := c.deadLetter(ctx, DeadLetter{
			Queue:     c.queue,
			MessageID: d.MessageId,
			Payload:   json.RawMessage(bytes.Clone(d.Body)),
			Attempts:  attempts,
			Err:       cause,
		})
		cancel()
		if err != nil {
			c.logger.Error("dead letter hook failed",
				logger.Component("consumer"),
				logger.Queue(c.queue),
				logger.MessageID(d.MessageId),
				logger.Error(err))
		}
	}

	if err := d.Reject(false); err != nil {
		c.logger.Error("failed to reject message",
			logger.Component("consumer"),
			logger.Queue(c.queue),
			logger.MessageID(d.MessageId),
			logger.Error(err))
		return
	}

	c.logger.Warn("message moved to dead letter queue",
		logger.Component("consumer"),
		logger.Queue(c.queue),
		logger.MessageID(d.MessageId),
		slog.Int("attempts", attempts))
}
