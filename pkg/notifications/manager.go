package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/requestid"
)

// Default queue names.
const (
	DefaultEmailQueue     = "email_notifications"
	DefaultWebSocketQueue = "websocket_notifications"
)

// Publisher sends a payload to a queue. *queue.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

// Queues names the main queue of each channel.
type Queues struct {
	Email     string
	WebSocket string
}

// For returns the queue of channel c.
func (q Queues) For(c Channel) string {
	if c == ChannelWebSocket {
		return q.WebSocket
	}
	return q.Email
}

// Manager accepts notification requests: it records them as queued and
// publishes them for delivery.
type Manager struct {
	storage   Storage
	publisher Publisher
	queues    Queues
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithQueues overrides the default queue names. Empty names keep the default.
func WithQueues(q Queues) ManagerOption {
	return func(m *Manager) {
		if q.Email != "" {
			m.queues.Email = q.Email
		}
		if q.WebSocket != "" {
			m.queues.WebSocket = q.WebSocket
		}
	}
}

// NewManager creates a notification manager.
func NewManager(storage Storage, publisher Publisher, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage:   storage,
		publisher: publisher,
		queues: Queues{
			Email:     DefaultEmailQueue,
			WebSocket: DefaultWebSocketQueue,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Queues returns the queue names in use.
func (m *Manager) Queues() Queues {
	return m.queues
}

// SendEmail validates p, records it as queued and publishes it to the email queue.
func (m *Manager) SendEmail(ctx context.Context, p EmailPayload) error {
	p = p.Sanitize()
	if p.RequestID == "" {
		p.RequestID = requestid.FromContext(ctx)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	rec := Record{
		Channel:      ChannelEmail,
		Target:       p.To,
		Label:        p.Subject,
		TemplateName: p.TemplateName,
		Data:         p.Data,
		Status:       StatusQueued,
	}
	return m.enqueue(ctx, rec, p, p.TemplateName)
}

// SendWebSocket validates p, records it as queued and publishes it to the
// websocket queue. The record uses the user id as target and the event as label.
func (m *Manager) SendWebSocket(ctx context.Context, p WebSocketPayload) error {
	p = p.Sanitize()
	if p.RequestID == "" {
		p.RequestID = requestid.FromContext(ctx)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	rec := Record{
		Channel: ChannelWebSocket,
		Target:  p.UserID,
		Label:   p.Event,
		Data:    p.Data,
		Status:  StatusQueued,
	}
	return m.enqueue(ctx, rec, p, p.Event)
}

func (m *Manager) enqueue(ctx context.Context, rec Record, payload any, kind string) error {
	if err := m.storage.Create(ctx, rec); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	queueName := m.queues.For(rec.Channel)
	if err := m.publisher.Publish(ctx, queueName, payload); err != nil {
		// The record would otherwise stay queued forever.
		if uerr := m.storage.UpsertStatus(ctx, rec.Target, rec.Label, StatusFailed); uerr != nil {
			m.logger.ErrorContext(ctx, "failed to mark unpublished notification",
				logger.Component("notifications"),
				logger.Queue(queueName),
				logger.Target(rec.Target),
				logger.Error(uerr))
		}
		return errors.Join(ErrPublishFailed, err)
	}

	m.logger.InfoContext(ctx, "notification queued",
		logger.Component("notifications"),
		logger.Queue(queueName),
		logger.NotificationType(kind),
		slog.String("channel", string(rec.Channel)))
	return nil
}
