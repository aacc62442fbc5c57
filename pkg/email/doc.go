// Package email sends transactional emails rendered from HTML templates.
//
// Delivery goes through the EmailSender interface. NewSender picks the
// implementation from Config: a Postmark client when tokens are configured,
// otherwise a DevSender that writes each email as an HTML file plus a JSON
// metadata file into Config.DevDir.
//
//	sender, err := email.NewSender(cfg, log)
//	if err != nil {
//	    return err
//	}
//
//	renderer, err := email.NewRendererFromConfig(cfg, embeddedTemplates)
//	if err != nil {
//	    return err
//	}
//
//	html, err := renderer.Render("welcome", map[string]any{"name": "Ada"})
//	if err != nil {
//	    return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Welcome!",
//	    BodyHTML: html,
//	    Tag:      "welcome",
//	})
//
// # Templates
//
// TemplateRenderer reads "<name>.html" files from an fs.FS and executes them
// with html/template, so template data is escaped. Names are flat: anything
// containing a path separator or starting with a dot is reported as
// ErrTemplateNotFound. Parsed templates are cached in an LRU bounded by
// Config.TemplateCacheSize; edits to template files need a restart.
//
// # Errors
//
//   - ErrInvalidConfig: configuration validation failed
//   - ErrInvalidParams: email parameters validation failed
//   - ErrFailedToSendEmail: the provider or the file system refused the email
//   - ErrTemplateNotFound: no template with the requested name
//   - ErrTemplateRender: the template failed to parse or execute
package email
