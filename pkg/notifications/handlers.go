package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifyrelay/pkg/broadcast"
	"github.com/dmitrymomot/notifyrelay/pkg/email"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/queue"
	"github.com/dmitrymomot/notifyrelay/pkg/requestid"
)

// Renderer turns a template name and its data into an HTML body.
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
}

// Emitter delivers an event to the listeners of a room.
// *broadcast.Rooms[broadcast.Event] implements it.
type Emitter interface {
	Emit(ctx context.Context, room string, ev broadcast.Event) (int, error)
}

// HandlerOption configures the queue handlers built by this package.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	logger *slog.Logger
	now    func() time.Time
}

// WithHandlerLogger sets the logger used by a handler.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(o *handlerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func newHandlerOptions(opts []HandlerOption) handlerOptions {
	o := handlerOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewEmailHandler returns the consumer handler of the email queue. It renders
// the payload's template, sends the result and records the outcome. A
// rendering or sending error marks the record failed and is returned so the
// message is retried.
func NewEmailHandler(sender email.EmailSender, renderer Renderer, store Storage, opts ...HandlerOption) queue.Handler {
	o := newHandlerOptions(opts)
	log := o.logger.With(logger.Component("email_handler"))

	return queue.NewHandler(func(ctx context.Context, p EmailPayload) error {
		ctx = withRequestID(ctx, p.RequestID)
		if err := p.Validate(); err != nil {
			return err
		}

		deliver := func() error {
			html, err := renderer.Render(p.TemplateName, p.Data)
			if err != nil {
				return fmt.Errorf("render %q: %w", p.TemplateName, err)
			}
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:   p.To,
				Subject:  p.Subject,
				BodyHTML: html,
				Tag:      p.TemplateName,
			})
		}

		if err := deliver(); err != nil {
			markStatus(ctx, log, store, p.To, p.Subject, StatusFailed,
				WithChannel(ChannelEmail), WithTemplateName(p.TemplateName), WithData(p.Data))
			return errors.Join(ErrDeliveryFailed, err)
		}

		markStatus(ctx, log, store, p.To, p.Subject, StatusSent,
			WithChannel(ChannelEmail), WithTemplateName(p.TemplateName), WithData(p.Data))

		log.InfoContext(ctx, "email notification sent",
			logger.Target(p.To),
			logger.NotificationType(p.TemplateName))
		return nil
	})
}

// NewWebSocketHandler returns the consumer handler of the websocket queue. It
// emits the event to the user's room. Nobody listening is still a successful
// delivery.
func NewWebSocketHandler(emitter Emitter, store Storage, opts ...HandlerOption) queue.Handler {
	o := newHandlerOptions(opts)
	log := o.logger.With(logger.Component("websocket_handler"))

	return queue.NewHandler(func(ctx context.Context, p WebSocketPayload) error {
		ctx = withRequestID(ctx, p.RequestID)
		if err := p.Validate(); err != nil {
			return err
		}

		listeners, err := emitter.Emit(ctx, p.UserID, broadcast.Event{
			Name: p.Event,
			Data: p.Data,
			At:   o.now(),
		})
		if err != nil {
			markStatus(ctx, log, store, p.UserID, p.Event, StatusFailed,
				WithChannel(ChannelWebSocket), WithData(p.Data))
			return errors.Join(ErrDeliveryFailed, err)
		}

		markStatus(ctx, log, store, p.UserID, p.Event, StatusSent,
			WithChannel(ChannelWebSocket), WithData(p.Data))

		log.InfoContext(ctx, "websocket notification sent",
			logger.Target(p.UserID),
			logger.NotificationType(p.Event),
			slog.Int("listeners", listeners))
		return nil
	})
}

// deadLetterView reads the identifying fields of either payload kind.
type deadLetterView struct {
	To           string `json:"to"`
	Subject      string `json:"subject"`
	TemplateName string `json:"templateName"`
	UserID       string `json:"userId"`
	Event        string `json:"event"`
	RequestID    string `json:"requestId"`
}

func (v deadLetterView) target() string {
	return firstNonEmpty(v.To, v.UserID)
}

func (v deadLetterView) label() string {
	return firstNonEmpty(v.Subject, v.Event)
}

func (v deadLetterView) kind() string {
	return firstNonEmpty(v.TemplateName, v.Event, "unknown")
}

// DeadLetterRecorder returns the consumer hook run before an exhausted message
// goes to the dead-letter queue. It logs the message and marks its record
// failed_dlq.
func DeadLetterRecorder(store Storage, channel Channel, log *slog.Logger) queue.DeadLetterFunc {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("dead_letter"))

	return func(ctx context.Context, dl queue.DeadLetter) error {
		var v deadLetterView
		if err := json.Unmarshal(dl.Payload, &v); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
		ctx = withRequestID(ctx, v.RequestID)

		log.ErrorContext(ctx, "message rejected after max retries",
			logger.RequestID(firstNonEmpty(v.RequestID, "unknown")),
			logger.NotificationType(v.kind()),
			logger.Target(firstNonEmpty(v.target(), "unknown")),
			logger.Queue(dl.Queue),
			logger.MessageID(dl.MessageID),
			logger.RetryAttempt(dl.Attempts),
			slog.String("payload", string(dl.Payload)),
			logger.Error(dl.Err))

		if v.target() == "" {
			return ErrTargetRequired
		}
		return store.UpsertStatus(ctx, v.target(), v.label(), StatusFailedDLQ, WithChannel(channel))
	}
}

func markStatus(ctx context.Context, log *slog.Logger, store Storage, target, label string, status Status, opts ...UpsertOption) {
	if err := store.UpsertStatus(ctx, target, label, status, opts...); err != nil {
		log.ErrorContext(ctx, "failed to update notification status",
			logger.Target(target),
			logger.Status(string(status)),
			logger.Error(err))
	}
}

func withRequestID(ctx context.Context, id string) context.Context {
	if id == "" || requestid.FromContext(ctx) != "" {
		return ctx
	}
	return requestid.WithContext(ctx, id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
