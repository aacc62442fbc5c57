// Package logger builds the *slog.Logger used across the relay and provides
// attribute helpers that keep key names consistent between the publisher, the
// consumer engine, the status stores and the HTTP layer.
//
// New applies functional options (format, level, output, static attributes,
// context extractors) and wraps the resulting handler with LogHandlerDecorator so
// request-scoped values stored in a context.Context are attached to every record
// logged with the *Context methods.
//
// # Usage
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//
//	log := logger.New(
//		logger.FromConfig(cfg),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.Warn("retry dropped: broker unhealthy",
//		logger.Queue("email_notifications"),
//		logger.RetryAttempt(2),
//	)
//
// # Environments
//
// WithEnvironment picks a preset: production and staging log JSON at INFO,
// everything else logs text at DEBUG. An explicit LOG_LEVEL in Config overrides
// the preset level.
//
// Helpers such as Error return an empty slog.Attr for nil input, so they can be
// passed unconditionally.
package logger
