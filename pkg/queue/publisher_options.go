package queue

import (
	"log/slog"
	"time"
)

// PublisherOption is a functional option for configuring a Publisher
type PublisherOption func(*publisherOptions)

type publisherOptions struct {
	timeout time.Duration
	logger  *slog.Logger
}

// WithPublishTimeout bounds a single publish call. Zero disables the bound.
func WithPublishTimeout(d time.Duration) PublisherOption {
	return func(o *publisherOptions) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithPublisherLogger sets the logger for the publisher
func WithPublisherLogger(l *slog.Logger) PublisherOption {
	return func(o *publisherOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
