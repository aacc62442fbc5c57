package queue

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HeaderRetryAttempt is the message header counting prior delivery attempts.
const HeaderRetryAttempt = "x-retry-attempt"

// Sender publishes a message to a queue through the default exchange.
type Sender interface {
	Publish(ctx context.Context, queue string, msg amqp.Publishing) error
}

// Republisher sends an encoded body back to a queue with a given retry attempt.
// *Publisher implements it.
type Republisher interface {
	PublishAttempt(ctx context.Context, queue string, body []byte, attempt int) error
}

// Broker is the subset of the broker connection used by consumers.
type Broker interface {
	// Consume starts a manual-ack subscription identified by consumerTag.
	Consume(queue, consumerTag string) (<-chan amqp.Delivery, error)

	// Cancel stops the subscription identified by consumerTag.
	Cancel(consumerTag string) error

	// IsHealthy reports whether the broker can currently take messages.
	IsHealthy() bool
}

// DeadLetter describes a message that exhausted its retries.
type DeadLetter struct {
	Queue     string
	MessageID string
	Payload   json.RawMessage
	Attempts  int
	Err       error
}

// DeadLetterFunc runs right before an exhausted message is rejected to the DLQ.
// Its error is logged; the message is rejected regardless.
type DeadLetterFunc func(ctx context.Context, dl DeadLetter) error

// RetryAttempt reads HeaderRetryAttempt, tolerating the integer, float and string
// encodings different clients use. Missing or invalid values count as 0.
func RetryAttempt(headers amqp.Table) int {
	if headers == nil {
		return 0
	}

	var n int64
	switch v := headers[HeaderRetryAttempt].(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case float32:
		n = int64(v)
	case float64:
		n = int64(v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}

	if n < 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}
