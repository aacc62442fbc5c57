package rabbitmq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dead-letter routing arguments understood by the broker.
const (
	ArgDeadLetterExchange   = "x-dead-letter-exchange"
	ArgDeadLetterRoutingKey = "x-dead-letter-routing-key"
)

// QueuePair binds a durable main queue to the durable queue that receives its
// rejected messages.
type QueuePair struct {
	Name       string
	DeadLetter string
}

// Declarer is the subset of *amqp.Channel used to declare the topology.
type Declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// DeclareTopology declares every dead-letter queue before any main queue, so the
// dead-letter target already exists when a main queue starts routing to it.
func DeclareTopology(d Declarer, pairs ...QueuePair) error {
	for _, p := range pairs {
		if p.Name == "" || p.DeadLetter == "" {
			return errors.Join(ErrTopologyDeclaration, ErrInvalidQueuePair)
		}
	}

	for _, p := range pairs {
		if _, err := d.QueueDeclare(p.DeadLetter, true, false, false, false, nil); err != nil {
			return errors.Join(ErrTopologyDeclaration, fmt.Errorf("declare %q: %w", p.DeadLetter, err))
		}
	}

	for _, p := range pairs {
		if _, err := d.QueueDeclare(p.Name, true, false, false, false, DeadLetterArgs(p.DeadLetter)); err != nil {
			return errors.Join(ErrTopologyDeclaration, fmt.Errorf("declare %q: %w", p.Name, err))
		}
	}

	return nil
}

// DeadLetterArgs routes rejected messages through the default exchange straight
// into the named queue.
func DeadLetterArgs(dlq string) amqp.Table {
	return amqp.Table{
		ArgDeadLetterExchange:   "",
		ArgDeadLetterRoutingKey: dlq,
	}
}

// QueueNames flattens pairs into main and dead-letter names, main queue first.
func QueueNames(pairs ...QueuePair) []string {
	names := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		names = append(names, p.Name, p.DeadLetter)
	}
	return names
}
