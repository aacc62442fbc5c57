package email

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

// EmailSender represents an interface for sending emails.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams represents the parameters for sending an email.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`       // Email address of the recipient
	Subject  string `json:"subject"`       // Subject of the email
	BodyHTML string `json:"body_html"`     // HTML body of the email
	Tag      string `json:"tag,omitempty"` // Optional
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidAddress reports whether s looks like a deliverable email address.
func IsValidAddress(s string) bool {
	return emailRegex.MatchString(s)
}

// Validate checks the parameters required by every sender.
func (p SendEmailParams) Validate() error {
	switch {
	case strings.TrimSpace(p.SendTo) == "":
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	case !emailRegex.MatchString(p.SendTo):
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	case strings.TrimSpace(p.Subject) == "":
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	case strings.TrimSpace(p.BodyHTML) == "":
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// NewSender returns a Postmark sender when credentials are configured and a
// DevSender writing to cfg.DevDir otherwise.
func NewSender(cfg Config, log *slog.Logger) (EmailSender, error) {
	if log == nil {
		log = slog.Default()
	}

	if cfg.UsePostmark() {
		return NewPostmarkClient(cfg)
	}

	log.Warn("postmark is not configured, emails are written to disk",
		logger.Component("email"),
		slog.String("dir", cfg.DevDir))
	return NewDevSender(cfg.DevDir), nil
}
