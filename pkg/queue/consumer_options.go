package queue

import (
	"log/slog"
	"time"
)

// ConsumerOption is a functional option for configuring a Consumer
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	maxRetries       int
	baseDelay        time.Duration
	consumerTag      string
	concurrency      int
	handlerTimeout   time.Duration
	republishTimeout time.Duration
	deadLetter       DeadLetterFunc
	logger           *slog.Logger
	afterFunc        func(time.Duration, func()) retryTimer
}

// WithMaxRetries sets how many re-publishes a message gets before it is
// dead-lettered. Zero dead-letters on the first failure.
func WithMaxRetries(n int) ConsumerOption {
	return func(o *consumerOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry; later retries double it.
func WithBaseDelay(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if d > 0 {
			o.baseDelay = d
		}
	}
}

// WithConsumerTag sets the broker consumer tag
func WithConsumerTag(tag string) ConsumerOption {
	return func(o *consumerOptions) {
		if tag != "" {
			o.consumerTag = tag
		}
	}
}

// WithConcurrency sets the maximum number of deliveries handled at once
func WithConcurrency(n int) ConsumerOption {
	return func(o *consumerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithHandlerTimeout bounds a single handler invocation
func WithHandlerTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if d > 0 {
			o.handlerTimeout = d
		}
	}
}

// WithDeadLetterHook sets the function called for every exhausted message
func WithDeadLetterHook(fn DeadLetterFunc) ConsumerOption {
	return func(o *consumerOptions) {
		o.deadLetter = fn
	}
}

// WithConsumerLogger sets the logger for the consumer
func WithConsumerLogger(l *slog.Logger) ConsumerOption {
	return func(o *consumerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
