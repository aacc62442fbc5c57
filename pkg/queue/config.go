package queue

import "time"

// Config holds the retry and concurrency settings shared by all consumers.
type Config struct {
	MaxRetries         int           `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
	BaseDelay          time.Duration `env:"QUEUE_BASE_DELAY" envDefault:"1s"`
	HandlerTimeout     time.Duration `env:"QUEUE_HANDLER_TIMEOUT" envDefault:"30s"`
	MaxConcurrentTasks int           `env:"QUEUE_MAX_CONCURRENT_TASKS" envDefault:"10"`
}

// FromConfig converts cfg into consumer options. Non-positive durations and
// concurrency keep the defaults.
func FromConfig(cfg Config) ConsumerOption {
	return func(o *consumerOptions) {
		WithMaxRetries(cfg.MaxRetries)(o)
		WithBaseDelay(cfg.BaseDelay)(o)
		WithHandlerTimeout(cfg.HandlerTimeout)(o)
		WithConcurrency(cfg.MaxConcurrentTasks)(o)
	}
}
