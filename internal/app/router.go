package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/notifyrelay/pkg/broadcast"
	"github.com/dmitrymomot/notifyrelay/pkg/clientip"
	"github.com/dmitrymomot/notifyrelay/pkg/environment"
	"github.com/dmitrymomot/notifyrelay/pkg/health"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/requestid"
)

// Notifier accepts notification requests. *notifications.Manager implements it.
type Notifier interface {
	SendEmail(ctx context.Context, p notifications.EmailPayload) error
	SendWebSocket(ctx context.Context, p notifications.WebSocketPayload) error
}

// EventSource opens per-user event subscriptions. *broadcast.Rooms implements it.
type EventSource interface {
	Subscribe(ctx context.Context, room string) (broadcast.Subscriber[broadcast.Event], error)
}

// TemplateLister lists the available email templates.
type TemplateLister interface {
	ListTemplates() ([]string, error)
}

// RouterDeps are the collaborators served over HTTP. Events and Templates
// are optional; their routes are not mounted when nil.
type RouterDeps struct {
	Notifier  Notifier
	Events    EventSource
	Templates TemplateLister
	Probe     *health.Probe
	Env       environment.Environment
	Logger    *slog.Logger

	MaxBodyBytes   int64
	EventKeepAlive time.Duration

	// StreamsDone ends every open event stream when closed.
	StreamsDone <-chan struct{}
}

type api struct {
	RouterDeps
	log *slog.Logger
}

// NewRouter builds the HTTP surface:
//
//	GET  /health, /livez
//	POST /api/v1/notifications/email, /api/v1/notifications/websocket
//	GET  /api/v1/notifications/email/templates
//	GET  /api/v1/events/{userID}  (server-sent events)
func NewRouter(d RouterDeps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.EventKeepAlive <= 0 {
		d.EventKeepAlive = 25 * time.Second
	}
	a := &api{RouterDeps: d, log: d.Logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(environment.Middleware(d.Env))
	r.Use(a.requestLogger)

	if d.Probe != nil {
		r.Get("/health", health.Handler(d.Probe, d.Logger))
	}
	r.Get("/livez", health.LivenessHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/notifications", func(r chi.Router) {
			r.Post("/email", a.sendEmail)
			r.Post("/websocket", a.sendWebSocket)
			if d.Templates != nil {
				r.Get("/email/templates", a.listTemplates)
			}
		})
		if d.Events != nil {
			r.Get("/events/{userID}", a.streamEvents)
		}
	})

	r.NotFound(a.notFound)
	r.MethodNotAllowed(a.methodNotAllowed)

	return r
}

func (a *api) sendEmail(w http.ResponseWriter, r *http.Request) {
	var p notifications.EmailPayload
	if err := decodeJSON(w, r, a.MaxBodyBytes, &p); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	p.RequestID = requestid.FromContext(r.Context())

	if err := a.Notifier.SendEmail(r.Context(), p); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: "Email notification queued"})
}

func (a *api) sendWebSocket(w http.ResponseWriter, r *http.Request) {
	var p notifications.WebSocketPayload
	if err := decodeJSON(w, r, a.MaxBodyBytes, &p); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	p.RequestID = requestid.FromContext(r.Context())

	if err := a.Notifier.SendWebSocket(r.Context(), p); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: "WebSocket notification queued"})
}

func (a *api) listTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := a.Templates.ListTemplates()
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"templates": names})
}

func (a *api) notFound(w http.ResponseWriter, r *http.Request) {
	msg := fmt.Sprintf("Route %s %s Not Found", r.Method, r.URL.Path)
	a.log.WarnContext(r.Context(), msg, logger.Component("api"))
	writeJSON(w, http.StatusNotFound, errorResponse{Error: msg, RequestID: requestid.FromContext(r.Context())})
}

func (a *api) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error:     fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path),
		RequestID: requestid.FromContext(r.Context()),
	})
}

func (a *api) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		a.log.InfoContext(r.Context(), "http request",
			logger.Component("api"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			logger.Duration(time.Since(start)))
	})
}
