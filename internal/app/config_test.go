package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/internal/app"
	"github.com/dmitrymomot/notifyrelay/pkg/config"
	"github.com/dmitrymomot/notifyrelay/pkg/email"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/rabbitmq"
)

func validConfig() app.Config {
	return app.Config{
		StatusStore: app.StoreMemory,
		Queues: app.QueuesConfig{
			Email:        "email_notifications",
			EmailDLQ:     "email_notifications_dlq",
			WebSocket:    "websocket_notifications",
			WebSocketDLQ: "websocket_notifications_dlq",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.StatusStore = "cassandra"
	err := cfg.Validate()
	assert.ErrorIs(t, err, app.ErrInvalidConfig)
	assert.ErrorIs(t, err, app.ErrUnknownStore)

	cfg = validConfig()
	cfg.Queues.EmailDLQ = ""
	assert.ErrorIs(t, cfg.Validate(), app.ErrQueueNameRequired)

	cfg = validConfig()
	cfg.Queues.WebSocketDLQ = cfg.Queues.WebSocket
	assert.ErrorIs(t, cfg.Validate(), app.ErrQueueNameConflict)
}

func TestQueuesConfig(t *testing.T) {
	t.Parallel()

	q := validConfig().Queues
	assert.Equal(t, []rabbitmq.QueuePair{
		{Name: "email_notifications", DeadLetter: "email_notifications_dlq"},
		{Name: "websocket_notifications", DeadLetter: "websocket_notifications_dlq"},
	}, q.Pairs())
	assert.Equal(t, notifications.Queues{Email: "email_notifications", WebSocket: "websocket_notifications"}, q.Main())
}

// Not parallel: mutates the process environment and the config cache.
func TestLoadConfig(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	t.Setenv("STATUS_STORE", "memory")
	t.Setenv("QUEUE_EMAIL", "mail")
	t.Setenv("QUEUE_MAX_RETRIES", "5")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, app.StoreMemory, cfg.StatusStore)
	assert.Equal(t, "mail", cfg.Queues.Email)
	assert.Equal(t, "email_notifications_dlq", cfg.Queues.EmailDLQ)
	assert.Equal(t, 5, cfg.Queue.MaxRetries)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBody)
}

func TestOpenStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := app.OpenStore(ctx, app.StoreMemory, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, app.StoreMemory, store.Driver)
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Create(ctx, notifications.Record{Channel: notifications.ChannelEmail, Target: "a@example.com", Label: "Hi"}))
	assert.NoError(t, store.Close(ctx))

	_, err = app.OpenStore(ctx, "sqlite", logger.Discard())
	assert.ErrorIs(t, err, app.ErrUnknownStore)

	var nilStore *app.Store
	assert.NoError(t, nilStore.Close(ctx))
}

func TestDefaultTemplates(t *testing.T) {
	t.Parallel()

	r, err := email.NewTemplateRenderer(app.DefaultTemplates())
	require.NoError(t, err)

	names, err := r.ListTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{"notification", "password_reset", "welcome"}, names)

	html, err := r.Render("welcome", map[string]any{"name": "<Ada>"})
	require.NoError(t, err)
	assert.Contains(t, html, "Welcome, &lt;Ada&gt;!")
	assert.Contains(t, html, "Sign in any time")
}
