package email

// Config holds email service configuration.
// Postmark tokens are optional: without them NewSender falls back to a DevSender
// writing to DevDir. SenderEmail and SupportEmail set the From and Reply-To
// addresses of every outbound email.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@localhost.dev"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@localhost.dev"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
	TemplatesDir         string `env:"EMAIL_TEMPLATES_DIR"`
	TemplateCacheSize    int    `env:"EMAIL_TEMPLATE_CACHE_SIZE" envDefault:"64"`
}

// UsePostmark reports whether Postmark credentials are configured.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != "" || c.PostmarkAccountToken != ""
}
