package health

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
)

const (
	statusOK   = "ok"
	statusFail = "fail"
)

type response struct {
	Status string `json:"status"`
	Report
}

// Handler serves the readiness report as JSON: 200 with status "ok" when
// ready, 503 with status "fail" otherwise.
func Handler(p *Probe, log *slog.Logger) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		report := p.Probe(r.Context())

		resp := response{Status: statusOK, Report: report}
		code := http.StatusOK
		if !report.Ready() {
			resp.Status = statusFail
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.ErrorContext(r.Context(), "failed to write health response",
				logger.Component("health"),
				logger.Error(err))
		}
	}
}

// LivenessHandler answers 200 "ALIVE" as long as the process serves HTTP.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}
