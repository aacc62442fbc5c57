package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/pkg/email"
)

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

var _ email.EmailSender = (*MockEmailSender)(nil)

func validParams() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Welcome aboard",
		BodyHTML: "<p>Hello</p>",
	}
}

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*email.SendEmailParams)
		errMsg string
	}{
		{"valid", func(*email.SendEmailParams) {}, ""},
		{"valid with tag", func(p *email.SendEmailParams) { p.Tag = "welcome" }, ""},
		{"empty recipient", func(p *email.SendEmailParams) { p.SendTo = "" }, "SendTo is required"},
		{"whitespace recipient", func(p *email.SendEmailParams) { p.SendTo = "   " }, "SendTo is required"},
		{"malformed recipient", func(p *email.SendEmailParams) { p.SendTo = "user@" }, "SendTo must be a valid email address"},
		{"recipient without tld", func(p *email.SendEmailParams) { p.SendTo = "user@example" }, "SendTo must be a valid email address"},
		{"empty subject", func(p *email.SendEmailParams) { p.Subject = " " }, "Subject is required"},
		{"empty body", func(p *email.SendEmailParams) { p.BodyHTML = "" }, "BodyHTML is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := validParams()
			tt.mutate(&p)

			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestIsValidAddress(t *testing.T) {
	t.Parallel()

	assert.True(t, email.IsValidAddress("a.b+c@mail.example.org"))
	assert.False(t, email.IsValidAddress("plainaddress"))
	assert.False(t, email.IsValidAddress("a@b"))
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	t.Run("falls back to dev sender", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewSender(email.Config{DevDir: t.TempDir()}, nil)
		require.NoError(t, err)
		assert.IsType(t, &email.DevSender{}, sender)
	})

	t.Run("uses postmark when configured", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewSender(validPostmarkConfig(), nil)
		require.NoError(t, err)
		_, isDev := sender.(*email.DevSender)
		assert.False(t, isDev)
	})

	t.Run("partial postmark config fails", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewSender(email.Config{PostmarkServerToken: "x"}, nil)
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	t.Run("writes html and metadata", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		params := validParams()
		params.Tag = "welcome"
		require.NoError(t, sender.SendEmail(context.Background(), params))

		htmlFiles, err := filepath.Glob(filepath.Join(dir, "*_welcome.html"))
		require.NoError(t, err)
		require.Len(t, htmlFiles, 1)

		body, err := os.ReadFile(htmlFiles[0])
		require.NoError(t, err)
		assert.Equal(t, params.BodyHTML, string(body))

		raw, err := os.ReadFile(strings.TrimSuffix(htmlFiles[0], ".html") + ".json")
		require.NoError(t, err)

		var meta map[string]string
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, "user@example.com", meta["send_to"])
		assert.Equal(t, "Welcome aboard", meta["subject"])
		assert.Equal(t, "welcome", meta["tag"])
		assert.NotEmpty(t, meta["timestamp"])
	})

	t.Run("subject names the file when tag is empty", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)
		require.NoError(t, sender.SendEmail(context.Background(), validParams()))

		files, err := filepath.Glob(filepath.Join(dir, "*_welcome_aboard.html"))
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("concurrent sends do not overwrite each other", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, sender.SendEmail(context.Background(), validParams()))
			}()
		}
		wg.Wait()

		files, err := filepath.Glob(filepath.Join(dir, "*.html"))
		require.NoError(t, err)
		assert.Len(t, files, 5)
	})

	t.Run("invalid params", func(t *testing.T) {
		t.Parallel()

		sender := email.NewDevSender(t.TempDir())
		err := sender.SendEmail(context.Background(), email.SendEmailParams{})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})

	t.Run("unwritable directory", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		sender := email.NewDevSender(filepath.Join(file, "sub"))
		err := sender.SendEmail(context.Background(), validParams())
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		sender := email.NewDevSender(t.TempDir())
		err := sender.SendEmail(ctx, validParams())
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEmailSender_Mock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sender := &MockEmailSender{}
	sender.On("SendEmail", ctx, validParams()).Return(email.ErrFailedToSendEmail).Once()

	err := sender.SendEmail(ctx, validParams())
	assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	sender.AssertExpectations(t)
}
