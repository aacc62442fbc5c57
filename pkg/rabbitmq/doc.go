// Package rabbitmq owns the single RabbitMQ connection and channel shared by the
// publisher, the retry/DLQ consumer and the health probe.
//
// Connect dials the broker with retry, opens one channel, applies the prefetch
// limit and declares the queue topology: every dead-letter queue first, then every
// main queue with dead-letter routing arguments pointing at its DLQ through the
// default exchange.
//
// Other components never touch the underlying amqp091 handles directly. They borrow
// the channel through Connection methods (Publish, Consume, Cancel, Inspect), all of
// which fail fast with ErrNotInitialized when Connect has not completed.
//
// # Usage
//
//	conn, err := rabbitmq.Connect(ctx, cfg, []rabbitmq.QueuePair{
//		{Name: "email_notifications", DeadLetter: "email_notifications_dlq"},
//	}, rabbitmq.WithLogger(log))
//	if err != nil {
//		log.Error("broker unavailable", logger.Error(err))
//		os.Exit(1)
//	}
//	defer conn.Close()
//
// # Health
//
// IsHealthy is event driven: a watcher goroutine listens for close notifications on
// both the connection and the channel and flips the flag to false as soon as one
// arrives. Healthcheck wraps it into the func(context.Context) error shape used by
// readiness endpoints.
package rabbitmq
