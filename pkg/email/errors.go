package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("mailer.errors.failed_to_send_email")
	ErrInvalidConfig     = errors.New("mailer.errors.invalid_config")
	ErrInvalidParams     = errors.New("mailer.errors.invalid_params")
	ErrTemplateNotFound  = errors.New("mailer.errors.template_not_found")
	ErrTemplateRender    = errors.New("mailer.errors.template_render_failed")
)
