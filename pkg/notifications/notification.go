package notifications

import (
	"time"
)

// Channel is the delivery channel of a notification.
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelWebSocket Channel = "websocket"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelWebSocket
}

// Status is the delivery state of a notification.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusFailedDLQ Status = "failed_dlq"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusSent, StatusFailed, StatusFailedDLQ:
		return true
	}
	return false
}

// IsTerminal reports whether no further status change is expected.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailedDLQ
}

// CanTransitionTo reports whether a record in status s may move to next.
// Re-asserting the current status is always allowed. Transitions only move
// forward: queued -> failed -> sent | failed_dlq. Nothing leaves a terminal status.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}

	switch s {
	case StatusQueued:
		return next != StatusQueued
	case StatusFailed:
		return next == StatusSent || next == StatusFailedDLQ
	default:
		return false
	}
}

// Record is the persisted status of one notification.
// Target is the recipient (email address or user id) and Label is the subject or
// event name; together they form the lookup key for status updates.
type Record struct {
	ID           string         `json:"id" bson:"_id"`
	Channel      Channel        `json:"type" bson:"type"`
	Target       string         `json:"to" bson:"to"`
	Label        string         `json:"subject" bson:"subject"`
	TemplateName string         `json:"templateName,omitempty" bson:"templateName,omitempty"`
	Data         map[string]any `json:"data,omitempty" bson:"data,omitempty"`
	Status       Status         `json:"status" bson:"status"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// normalize fills generated fields of a new record.
func (r *Record) normalize(now time.Time, newID func() string) {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.Status == "" {
		r.Status = StatusQueued
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = r.CreatedAt
}

func (r Record) validate() error {
	if r.Target == "" {
		return ErrTargetRequired
	}
	if !r.Channel.Valid() {
		return ErrInvalidChannel
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
