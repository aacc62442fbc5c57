package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

// Publisher serialises payloads and sends them as persistent JSON messages.
type Publisher struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a Publisher on top of sender.
func NewPublisher(sender Sender, opts ...PublisherOption) (*Publisher, error) {
	if sender == nil {
		return nil, ErrBrokerNil
	}

	options := &publisherOptions{
		timeout: 5 * time.Second,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Publisher{
		sender:  sender,
		timeout: options.timeout,
		logger:  options.logger,
	}, nil
}

// Publish marshals payload to JSON and sends it to queue as a first attempt.
func (p *Publisher) Publish(ctx context.Context, queue string, payload any) error {
	if payload == nil {
		return ErrPayloadNil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Join(ErrPayloadMarshal, fmt.Errorf("payload of type %T: %w", payload, err))
	}

	return p.PublishAttempt(ctx, queue, body, 0)
}

// PublishAttempt sends an already encoded body to queue with the given retry attempt.
func (p *Publisher) PublishAttempt(ctx context.Context, queue string, body []byte, attempt int) error {
	if queue == "" {
		return ErrQueueNameEmpty
	}
	if body == nil {
		return ErrPayloadNil
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg := newPublishing(body, attempt)
	if err := p.sender.Publish(ctx, queue, msg); err != nil {
		return errors.Join(ErrPublishFailed, fmt.Errorf("queue %q: %w", queue, err))
	}

	p.logger.Debug("message published",
		logger.Component("publisher"),
		logger.Queue(queue),
		logger.MessageID(msg.MessageId),
		logger.RetryAttempt(attempt))

	return nil
}

func newPublishing(body []byte, attempt int) amqp.Publishing {
	attempt = min(max(attempt, 0), math.MaxInt32)
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Headers:      amqp.Table{HeaderRetryAttempt: int32(attempt)},
		Body:         body,
	}
}
