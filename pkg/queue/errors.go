package queue

import "errors"

// Common errors
var (
	// ErrBrokerNil is returned when a nil broker is provided
	ErrBrokerNil = errors.New("broker cannot be nil")

	// ErrPublisherNil is returned when a consumer is created without a publisher
	ErrPublisherNil = errors.New("publisher cannot be nil")

	// ErrHandlerNil is returned when a consumer is created without a handler
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrQueueNameEmpty is returned when no queue name is given
	ErrQueueNameEmpty = errors.New("queue name cannot be empty")

	// ErrPayloadNil is returned when attempting to publish a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrPayloadMarshal is returned when payload marshaling fails
	ErrPayloadMarshal = errors.New("failed to marshal payload to JSON")

	// ErrPublishFailed is returned when the broker refuses or cannot take a message
	ErrPublishFailed = errors.New("failed to publish message")

	// ErrSubscribeFailed is returned when the consumer cannot subscribe to its queue
	ErrSubscribeFailed = errors.New("failed to subscribe to queue")

	// ErrConsumerRunning is returned when Start is called on a running consumer
	ErrConsumerRunning = errors.New("consumer already started")

	// ErrConsumerNotRunning is returned when Stop is called on a stopped consumer
	ErrConsumerNotRunning = errors.New("consumer not started")

	// ErrHandlerPanic wraps a recovered handler panic
	ErrHandlerPanic = errors.New("panic in handler")
)
