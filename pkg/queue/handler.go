package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

type (
	// Handler processes one message payload. A returned error (or a panic) marks
	// the delivery as failed and sends it through the retry path.
	Handler interface {
		Name() string
		Handle(ctx context.Context, payload json.RawMessage) error
	}

	// HandlerFunc adapts a raw payload function to Handler.
	HandlerFunc func(ctx context.Context, payload json.RawMessage) error

	// TypedHandlerFunc receives the payload decoded into T.
	TypedHandlerFunc[T any] func(ctx context.Context, payload T) error
)

func (f HandlerFunc) Name() string {
	return "raw"
}

func (f HandlerFunc) Handle(ctx context.Context, payload json.RawMessage) error {
	return f(ctx, payload)
}

// NewHandler wraps fn, decoding each payload into T. Its name is the qualified
// name of T. Payloads that do not decode into T fail like any other handler error.
func NewHandler[T any](fn TypedHandlerFunc[T]) Handler {
	var payload T
	return &typedHandler[T]{
		name: qualifiedStructName(payload),
		fn:   fn,
	}
}

type typedHandler[T any] struct {
	name string
	fn   TypedHandlerFunc[T]
}

func (h *typedHandler[T]) Name() string {
	return h.name
}

func (h *typedHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("decode %s payload: %w", h.name, err)
	}
	return h.fn(ctx, v)
}
