package queue

import "time"

// RetryTimer exposes the retry timer contract to tests.
type RetryTimer = retryTimer

// WithAfterFunc replaces time.AfterFunc for scheduling retries.
func WithAfterFunc(fn func(time.Duration, func()) RetryTimer) ConsumerOption {
	return func(o *consumerOptions) {
		o.afterFunc = fn
	}
}
