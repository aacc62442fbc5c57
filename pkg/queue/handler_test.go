package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/pkg/queue"
)

type handlerTestPayload struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	t.Run("name is the qualified payload type", func(t *testing.T) {
		t.Parallel()

		handler := queue.NewHandler(func(ctx context.Context, payload handlerTestPayload) error {
			return nil
		})
		assert.Equal(t, "queue_test.handlerTestPayload", handler.Name())

		ptrHandler := queue.NewHandler(func(ctx context.Context, payload *handlerTestPayload) error {
			return nil
		})
		assert.Equal(t, "queue_test.handlerTestPayload", ptrHandler.Name())
	})

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()

		var got handlerTestPayload
		handler := queue.NewHandler(func(ctx context.Context, payload handlerTestPayload) error {
			got = payload
			return nil
		})

		body, err := json.Marshal(handlerTestPayload{Message: "hello", Value: 42})
		require.NoError(t, err)

		require.NoError(t, handler.Handle(context.Background(), body))
		assert.Equal(t, handlerTestPayload{Message: "hello", Value: 42}, got)
	})

	t.Run("returns handler error", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("processing failed")
		handler := queue.NewHandler(func(ctx context.Context, payload handlerTestPayload) error {
			return expected
		})

		err := handler.Handle(context.Background(), json.RawMessage(`{}`))
		assert.ErrorIs(t, err, expected)
	})

	t.Run("returns decode error", func(t *testing.T) {
		t.Parallel()

		called := false
		handler := queue.NewHandler(func(ctx context.Context, payload handlerTestPayload) error {
			called = true
			return nil
		})

		err := handler.Handle(context.Background(), json.RawMessage(`{"value":"not a number"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "queue_test.handlerTestPayload")
		assert.False(t, called)
	})
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()

	var got json.RawMessage
	handler := queue.HandlerFunc(func(ctx context.Context, payload json.RawMessage) error {
		got = payload
		return nil
	})

	require.NoError(t, handler.Handle(context.Background(), json.RawMessage(`{"a":1}`)))
	assert.JSONEq(t, `{"a":1}`, string(got))
	assert.Equal(t, "raw", handler.Name())
}
