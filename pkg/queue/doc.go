// Package queue publishes JSON payloads to RabbitMQ and consumes them with
// bounded, application-level retries and dead-letter routing.
//
// The package is organised around two components:
//
//   - Publisher: serialises a payload, stamps the retry attempt header and sends
//     a persistent message to a queue
//   - Consumer: subscribes to one queue, runs a Handler per delivery and decides
//     between ack, delayed re-publish and reject-to-DLQ
//
// Both talk to the broker through the small Sender and Broker interfaces,
// implemented by *rabbitmq.Connection and easy to fake in tests.
//
// # Retry model
//
// Every message carries an "x-retry-attempt" header (0 on first publish). When the
// handler fails, the consumer computes next = attempt + 1:
//
//  1. next <= MaxRetries: the original delivery is acknowledged and, after
//     Backoff(BaseDelay, next) = BaseDelay * 2^(next-1), the same body is
//     re-published to the tail of the same queue with attempt = next. The retry
//     is dropped with a warning when the broker is unhealthy at that moment.
//  2. next > MaxRetries: the dead-letter hook runs (typically persisting a
//     failed_dlq status) and the delivery is rejected without requeue, so the
//     broker's dead-letter routing moves it to the DLQ.
//
// Acknowledging before the delayed re-publish gives exponential spacing that the
// broker's native redelivery lacks. The price is that a crash between the ack and
// the timer firing loses that retry.
//
// Pending retry timers are tracked per consumer; CancelRetries stops all of them
// at once. Stop cancels the broker subscription and does not wait for handlers
// that are already running.
//
// # Usage
//
//	pub, _ := queue.NewPublisher(conn)
//	_ = pub.Publish(ctx, "email_notifications", payload)
//
//	consumer, _ := queue.NewConsumer(conn, pub, "email_notifications",
//		queue.NewHandler(func(ctx context.Context, p EmailPayload) error {
//			return send(ctx, p)
//		}),
//		queue.WithMaxRetries(3),
//		queue.WithBaseDelay(time.Second),
//		queue.WithDeadLetterHook(markFailed),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(consumer.Run(ctx))
//
// # Error Handling
//
// Package-level sentinel errors (ErrPayloadNil, ErrPublishFailed, ...) can be
// checked with errors.Is.
package queue
