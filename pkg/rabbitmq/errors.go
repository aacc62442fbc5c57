package rabbitmq

import "errors"

var (
	ErrFailedToConnect     = errors.New("failed to connect to rabbitmq")
	ErrNotInitialized      = errors.New("rabbitmq channel not initialized")
	ErrTopologyDeclaration = errors.New("failed to declare rabbitmq queue topology")
	ErrHealthcheckFailed   = errors.New("rabbitmq healthcheck failed")
	ErrInvalidQueuePair    = errors.New("queue pair requires both a queue name and a dead-letter queue name")
)
