package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Inspector is the subset of *amqp.Channel used to read queue state.
type Inspector interface {
	QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Close() error
}

// InspectQueue reads the state of queue on a channel obtained from open and
// closes that channel afterwards. A passive declare of an unknown queue makes the
// broker close the channel it ran on, so it never runs on a shared one.
func InspectQueue(open func() (Inspector, error), queue string) (QueueState, error) {
	ch, err := open()
	if err != nil {
		return QueueState{}, err
	}
	defer func() { _ = ch.Close() }()

	q, err := ch.QueueDeclarePassive(queue, true, false, false, false, nil)
	if err != nil {
		return QueueState{}, err
	}
	return QueueState{Name: q.Name, Messages: q.Messages, Consumers: q.Consumers}, nil
}
