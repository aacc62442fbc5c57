// Package httpserver wraps net/http with context-driven graceful shutdown,
// configurable timeouts and slog logging.
//
// Run blocks until the context is cancelled, then calls Shutdown with the
// configured deadline. Signal handling belongs to the caller, typically via
// signal.NotifyContext, so the server stops together with the queue
// consumers running in the same errgroup:
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Start(ctx, router))
//
// Listen failures are joined with ErrStart and shutdown failures with
// ErrShutdown.
package httpserver
