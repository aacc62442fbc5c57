// Package requestid correlates an HTTP request with the notification it
// produces.
//
// Middleware attaches an id to every request, reusing a well-formed
// X-Request-ID header. The id travels in the request context, is copied into
// queued payloads and restored on the consumer side, so delivery logs carry
// the same request_id as the API call:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
