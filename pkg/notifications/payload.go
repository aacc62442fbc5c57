package notifications

import (
	"errors"

	"github.com/dmitrymomot/notifyrelay/pkg/sanitizer"
	"github.com/dmitrymomot/notifyrelay/pkg/validator"
)

const (
	maxSubjectLength = 998
	maxNameLength    = 255
)

// EmailPayload is the message published to the email queue.
type EmailPayload struct {
	To           string         `json:"to"`
	Subject      string         `json:"subject"`
	TemplateName string         `json:"templateName"`
	Data         map[string]any `json:"data"`
	RequestID    string         `json:"requestId,omitempty"`
}

// Sanitize returns a copy with cleaned text fields, a normalized address and
// operator keys removed from Data.
func (p EmailPayload) Sanitize() EmailPayload {
	return EmailPayload{
		To:           sanitizer.NormalizeEmail(sanitizer.Clean(p.To)),
		Subject:      sanitizer.Clean(p.Subject),
		TemplateName: sanitizer.Clean(p.TemplateName),
		Data:         sanitizer.Document(p.Data, sanitizer.Clean),
		RequestID:    p.RequestID,
	}
}

// Validate reports every invalid field. The error matches ErrInvalidPayload
// and carries validator.ValidationErrors.
func (p EmailPayload) Validate() error {
	return invalidPayload(validator.Apply(
		validator.ValidEmail("to", p.To),
		validator.Required("subject", p.Subject),
		validator.MaxLen("subject", p.Subject, maxSubjectLength),
		validator.Required("templateName", p.TemplateName),
		validator.MaxLen("templateName", p.TemplateName, maxNameLength),
		validator.RequiredMap("data", p.Data),
	))
}

// Target is the recipient address.
func (p EmailPayload) Target() string { return p.To }

// Label is the subject line.
func (p EmailPayload) Label() string { return p.Subject }

// Kind is the template name.
func (p EmailPayload) Kind() string { return p.TemplateName }

// WebSocketPayload is the message published to the websocket queue.
type WebSocketPayload struct {
	UserID    string         `json:"userId"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	RequestID string         `json:"requestId,omitempty"`
}

// Sanitize returns a copy with cleaned text fields and operator keys removed
// from Data.
func (p WebSocketPayload) Sanitize() WebSocketPayload {
	return WebSocketPayload{
		UserID:    sanitizer.Clean(p.UserID),
		Event:     sanitizer.Clean(p.Event),
		Data:      sanitizer.Document(p.Data, sanitizer.Clean),
		RequestID: p.RequestID,
	}
}

// Validate reports every invalid field. The error matches ErrInvalidPayload
// and carries validator.ValidationErrors.
func (p WebSocketPayload) Validate() error {
	return invalidPayload(validator.Apply(
		validator.Required("userId", p.UserID),
		validator.MaxLen("userId", p.UserID, maxNameLength),
		validator.Required("event", p.Event),
		validator.MaxLen("event", p.Event, maxNameLength),
		validator.RequiredMap("data", p.Data),
	))
}

// Target is the user id.
func (p WebSocketPayload) Target() string { return p.UserID }

// Label is the event name.
func (p WebSocketPayload) Label() string { return p.Event }

// Kind is the event name.
func (p WebSocketPayload) Kind() string { return p.Event }

func invalidPayload(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrInvalidPayload, err)
}
