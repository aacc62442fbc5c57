// Package health reports whether the relay can accept and deliver
// notifications.
//
// A Probe combines the broker connection's event-driven health flag, a store
// Check (any func(context.Context) error, such as the Ping of a status store)
// and per-queue depth and consumer counts:
//
//	probe := health.NewProbe(conn, store.Ping, rabbitmq.QueueNames(pairs...))
//	r.Get("/health", health.Handler(probe, log))
//	r.Get("/livez", health.LivenessHandler())
//
// Queue statistics are only collected while the broker is healthy. The probe
// is read-only.
package health
