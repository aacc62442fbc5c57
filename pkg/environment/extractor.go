package environment

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

// LoggerExtractor adds "env" to records logged with a context carrying an
// environment.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if env := FromContext(ctx); env != "" {
			return slog.String("env", string(env)), true
		}
		return slog.Attr{}, false
	}
}
