// Package notifications records, queues and delivers email and websocket
// notifications.
//
// A request goes through three steps:
//
//  1. Manager.SendEmail or Manager.SendWebSocket sanitizes and validates the
//     payload, stores a Record with status queued and publishes the payload
//     to the channel's queue.
//  2. A queue consumer runs the handler built by NewEmailHandler or
//     NewWebSocketHandler. Success marks the record sent; a failure marks it
//     failed and is retried with backoff by the consumer.
//  3. When retries are exhausted, the hook returned by DeadLetterRecorder
//     marks the record failed_dlq and the message moves to the dead-letter
//     queue.
//
// # Status
//
// Statuses only move forward: queued -> failed -> sent or failed_dlq. Sent and
// failed_dlq are terminal; a late update trying to leave them is ignored.
//
// # Storage
//
// Records are looked up by (target, label): the recipient address and subject
// for email, the user id and event name for websocket. The newest record for a
// pair wins, so two notifications with the same pair share status updates.
// Four Storage implementations are provided:
//
//   - MemoryStorage for development and tests
//   - MongoStorage on the "notifications" collection
//   - PostgresStorage with goose migrations embedded in Migrations
//   - RedisStorage with a JSON document per record and a latest-id pointer
//
// # Usage
//
//	store := notifications.NewMemoryStorage()
//	manager := notifications.NewManager(store, publisher)
//
//	err := manager.SendEmail(ctx, notifications.EmailPayload{
//	    To:           "user@example.com",
//	    Subject:      "Welcome",
//	    TemplateName: "welcome",
//	    Data:         map[string]any{"name": "Ada"},
//	})
//	if errors.Is(err, notifications.ErrInvalidPayload) {
//	    // reject the request
//	}
package notifications
