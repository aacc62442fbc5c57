package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/pkg/broadcast"
	"github.com/dmitrymomot/notifyrelay/pkg/email"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/queue"
)

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	return m.Called(ctx, params).Error(0)
}

type stubRenderer struct {
	html string
	err  error
}

func (r stubRenderer) Render(string, map[string]any) (string, error) {
	return r.html, r.err
}

type stubEmitter struct {
	events    []broadcast.Event
	rooms     []string
	listeners int
	err       error
}

func (e *stubEmitter) Emit(_ context.Context, room string, ev broadcast.Event) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	e.rooms = append(e.rooms, room)
	e.events = append(e.events, ev)
	return e.listeners, nil
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestEmailHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("renders, sends and marks sent", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		require.NoError(t, store.Create(ctx, emailRecord("user@example.com", "Welcome")))

		sender := &MockEmailSender{}
		sender.On("SendEmail", mock.Anything, email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Welcome",
			BodyHTML: "<p>Hi Ada</p>",
			Tag:      "welcome",
		}).Return(nil).Once()

		h := notifications.NewEmailHandler(sender, stubRenderer{html: "<p>Hi Ada</p>"}, store,
			notifications.WithHandlerLogger(logger.Discard()))
		require.NoError(t, h.Handle(ctx, mustJSON(t, validEmailPayload())))

		rec, err := store.Latest(ctx, "user@example.com", "Welcome")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusSent, rec.Status)
		sender.AssertExpectations(t)
	})

	t.Run("send failure marks failed and returns error", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		sender := &MockEmailSender{}
		sender.On("SendEmail", mock.Anything, mock.Anything).Return(email.ErrFailedToSendEmail)

		h := notifications.NewEmailHandler(sender, stubRenderer{html: "x"}, store,
			notifications.WithHandlerLogger(logger.Discard()))
		err := h.Handle(ctx, mustJSON(t, validEmailPayload()))
		require.ErrorIs(t, err, notifications.ErrDeliveryFailed)
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)

		rec, err := store.Latest(ctx, "user@example.com", "Welcome")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusFailed, rec.Status)
		assert.Equal(t, "welcome", rec.TemplateName)
	})

	t.Run("render failure never sends", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		sender := &MockEmailSender{}

		h := notifications.NewEmailHandler(sender, stubRenderer{err: email.ErrTemplateNotFound}, store,
			notifications.WithHandlerLogger(logger.Discard()))
		err := h.Handle(ctx, mustJSON(t, validEmailPayload()))
		require.ErrorIs(t, err, email.ErrTemplateNotFound)
		sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})

	t.Run("status write failure after send is not retried", func(t *testing.T) {
		t.Parallel()

		store := &MockStorage{}
		store.On("UpsertStatus", mock.Anything, "user@example.com", "Welcome", notifications.StatusSent).
			Return(notifications.ErrStorageFailure)
		sender := &MockEmailSender{}
		sender.On("SendEmail", mock.Anything, mock.Anything).Return(nil).Once()

		h := notifications.NewEmailHandler(sender, stubRenderer{html: "x"}, store,
			notifications.WithHandlerLogger(logger.Discard()))
		assert.NoError(t, h.Handle(ctx, mustJSON(t, validEmailPayload())))
		store.AssertExpectations(t)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()

		h := notifications.NewEmailHandler(&MockEmailSender{}, stubRenderer{}, notifications.NewMemoryStorage())
		err := h.Handle(ctx, json.RawMessage(`{"to":"user@example.com"}`))
		assert.ErrorIs(t, err, notifications.ErrInvalidPayload)

		err = h.Handle(ctx, json.RawMessage(`[]`))
		assert.Error(t, err)
	})
}

func TestWebSocketHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("emits to the user's room and marks sent", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		emitter := &stubEmitter{listeners: 2}

		h := notifications.NewWebSocketHandler(emitter, store, notifications.WithHandlerLogger(logger.Discard()))
		require.NoError(t, h.Handle(ctx, mustJSON(t, validWebSocketPayload())))

		require.Len(t, emitter.events, 1)
		assert.Equal(t, []string{"u1"}, emitter.rooms)
		assert.Equal(t, "order.shipped", emitter.events[0].Name)
		assert.Equal(t, "42", emitter.events[0].Data["orderId"])
		assert.False(t, emitter.events[0].At.IsZero())

		rec, err := store.Latest(ctx, "u1", "order.shipped")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusSent, rec.Status)
		assert.Equal(t, notifications.ChannelWebSocket, rec.Channel)
	})

	t.Run("emit failure marks failed", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		emitter := &stubEmitter{err: broadcast.ErrRoomsClosed}

		h := notifications.NewWebSocketHandler(emitter, store, notifications.WithHandlerLogger(logger.Discard()))
		err := h.Handle(ctx, mustJSON(t, validWebSocketPayload()))
		require.ErrorIs(t, err, broadcast.ErrRoomsClosed)

		rec, err := store.Latest(ctx, "u1", "order.shipped")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusFailed, rec.Status)
	})

	t.Run("works with real rooms", func(t *testing.T) {
		t.Parallel()

		rooms := broadcast.NewRooms[broadcast.Event]()
		defer rooms.Close()
		sub, err := rooms.Subscribe(ctx, "u1")
		require.NoError(t, err)

		h := notifications.NewWebSocketHandler(rooms, notifications.NewMemoryStorage(),
			notifications.WithHandlerLogger(logger.Discard()))
		require.NoError(t, h.Handle(ctx, mustJSON(t, validWebSocketPayload())))

		msg := <-sub.Receive(ctx)
		assert.Equal(t, "order.shipped", msg.Data.Name)
	})
}

func TestDeadLetterRecorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("email payload", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		require.NoError(t, store.Create(ctx, emailRecord("user@example.com", "Welcome")))
		require.NoError(t, store.UpsertStatus(ctx, "user@example.com", "Welcome", notifications.StatusFailed))

		hook := notifications.DeadLetterRecorder(store, notifications.ChannelEmail, logger.Discard())
		err := hook(ctx, queue.DeadLetter{
			Queue:    notifications.DefaultEmailQueue,
			Payload:  mustJSON(t, validEmailPayload()),
			Attempts: 4,
			Err:      errors.New("smtp down"),
		})
		require.NoError(t, err)

		rec, err := store.Latest(ctx, "user@example.com", "Welcome")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusFailedDLQ, rec.Status)
	})

	t.Run("websocket payload without prior record", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		hook := notifications.DeadLetterRecorder(store, notifications.ChannelWebSocket, nil)
		require.NoError(t, hook(ctx, queue.DeadLetter{Payload: mustJSON(t, validWebSocketPayload())}))

		rec, err := store.Latest(ctx, "u1", "order.shipped")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusFailedDLQ, rec.Status)
		assert.Equal(t, notifications.ChannelWebSocket, rec.Channel)
	})

	t.Run("sent record is not downgraded", func(t *testing.T) {
		t.Parallel()

		store := notifications.NewMemoryStorage()
		require.NoError(t, store.UpsertStatus(ctx, "user@example.com", "Welcome", notifications.StatusSent))

		hook := notifications.DeadLetterRecorder(store, notifications.ChannelEmail, logger.Discard())
		require.NoError(t, hook(ctx, queue.DeadLetter{Payload: mustJSON(t, validEmailPayload())}))

		rec, err := store.Latest(ctx, "user@example.com", "Welcome")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusSent, rec.Status)
	})

	t.Run("payload without target", func(t *testing.T) {
		t.Parallel()

		hook := notifications.DeadLetterRecorder(notifications.NewMemoryStorage(), notifications.ChannelEmail, logger.Discard())
		assert.ErrorIs(t, hook(ctx, queue.DeadLetter{Payload: json.RawMessage(`{"subject":"x"}`)}), notifications.ErrTargetRequired)
		assert.ErrorIs(t, hook(ctx, queue.DeadLetter{Payload: json.RawMessage(`"str"`)}), notifications.ErrInvalidPayload)
	})
}
