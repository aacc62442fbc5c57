package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifyrelay/pkg/broadcast"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

var eventNameReplacer = strings.NewReplacer("\r", "", "\n", "")

// streamEvents subscribes the caller to the room of userID and relays every
// emitted event as a server-sent event until the client disconnects.
func (a *api) streamEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeError(w, r, a.log, ErrUserIDRequired)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, a.log, fmt.Errorf("response writer %T cannot stream", w))
		return
	}

	sub, err := a.Events.Subscribe(ctx, userID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	defer sub.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	a.log.InfoContext(ctx, "event stream opened", logger.Component("events"), logger.Target(userID))
	defer a.log.InfoContext(ctx, "event stream closed", logger.Component("events"), logger.Target(userID))

	keepAlive := time.NewTicker(a.EventKeepAlive)
	defer keepAlive.Stop()

	messages := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.StreamsDone:
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := writeEvent(w, msg.Data); err != nil {
				a.log.WarnContext(ctx, "failed to write event",
					logger.Component("events"),
					logger.Target(userID),
					logger.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev broadcast.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventNameReplacer.Replace(ev.Name), data)
	return err
}
