package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures the HTTP server. Zero or negative values keep the
// current setting.
type Option func(*config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *config) {
		if addr != "" {
			c.addr = addr
		}
	}
}

// WithReadTimeout bounds reading a whole request.
func WithReadTimeout(d time.Duration) Option {
	return durationOption(d, func(c *config) *time.Duration { return &c.readTimeout })
}

// WithReadHeaderTimeout bounds reading request headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return durationOption(d, func(c *config) *time.Duration { return &c.readHeaderTimeout })
}

// WithWriteTimeout bounds writing a response. Leave it unset on servers that
// stream events.
func WithWriteTimeout(d time.Duration) Option {
	return durationOption(d, func(c *config) *time.Duration { return &c.writeTimeout })
}

// WithIdleTimeout bounds keep-alive idle time.
func WithIdleTimeout(d time.Duration) Option {
	return durationOption(d, func(c *config) *time.Duration { return &c.idleTimeout })
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return durationOption(d, func(c *config) *time.Duration { return &c.shutdownTimeout })
}

func durationOption(d time.Duration, field func(*config) *time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			*field(c) = d
		}
	}
}

// WithServer runs on srv. Fields already set on srv win over the options.
func WithServer(srv *http.Server) Option {
	return func(c *config) {
		if srv != nil {
			c.server = srv
		}
	}
}

// WithLogger sets the logger. Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStartHook runs h right before the server starts listening.
func WithStartHook(h func(*slog.Logger)) Option {
	return func(c *config) {
		if h != nil {
			c.startHooks = append(c.startHooks, h)
		}
	}
}

// WithOnShutdown registers fn with http.Server.RegisterOnShutdown. It runs as
// soon as shutdown begins, which lets long-lived handlers such as event streams
// return instead of holding shutdown until its timeout.
func WithOnShutdown(fn func()) Option {
	return func(c *config) {
		if fn != nil {
			c.onShutdown = append(c.onShutdown, fn)
		}
	}
}

// WithStopHook runs h after a graceful shutdown.
func WithStopHook(h func(*slog.Logger)) Option {
	return func(c *config) {
		if h != nil {
			c.stopHooks = append(c.stopHooks, h)
		}
	}
}
