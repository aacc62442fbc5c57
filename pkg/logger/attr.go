package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Queue records the broker queue name.
func Queue(name string) slog.Attr {
	return slog.String("queue", name)
}

// ConsumerTag records the subscription handle of a consumer.
func ConsumerTag(tag string) slog.Attr {
	return slog.String("consumer_tag", tag)
}

// RetryAttempt records the attempt counter carried in message headers.
func RetryAttempt(n int) slog.Attr {
	return slog.Int("retry_attempt", n)
}

// MaxRetries records the configured retry limit.
func MaxRetries(n int) slog.Attr {
	return slog.Int("max_retries", n)
}

// Delay records a backoff delay.
func Delay(d time.Duration) slog.Attr {
	return slog.Duration("delay", d)
}

// Duration records how long an operation took.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// MessageID records the broker message identifier. Empty ids are skipped.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// RequestID records the request identifier. Empty ids are skipped.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Target records the notification destination (email address or user id).
func Target(target string) slog.Attr {
	return slog.String("target", target)
}

// NotificationType records the template or event name of a notification.
func NotificationType(name string) slog.Attr {
	return slog.String("notification_type", name)
}

// Status records a notification status.
func Status(status string) slog.Attr {
	return slog.String("status", status)
}
