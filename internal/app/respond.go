package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrymomot/notifyrelay/pkg/environment"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/requestid"
	"github.com/dmitrymomot/notifyrelay/pkg/validator"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error     string                     `json:"error"`
	Fields    validator.ValidationErrors `json:"fields,omitempty"`
	RequestID string                     `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads exactly one JSON value from the body into v. Bodies without
// a Content-Type are read as JSON; any other media type is rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %q", ErrUnsupportedMedia, ct)
		}
	}

	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return err
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		default:
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: unexpected data after JSON value", ErrInvalidJSON)
	}
	return nil
}

type errorInfo struct {
	status  int
	message string
	fields  validator.ValidationErrors
}

func classifyError(err error) errorInfo {
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, notifications.ErrInvalidPayload), errors.Is(err, validator.ErrValidationFailed):
		fields := validator.ExtractValidationErrors(err)
		msg := err.Error()
		if len(fields) > 0 {
			msg = fields.Error()
		}
		return errorInfo{status: http.StatusBadRequest, message: msg, fields: fields}
	case errors.Is(err, ErrInvalidJSON), errors.Is(err, ErrUserIDRequired):
		return errorInfo{status: http.StatusBadRequest, message: err.Error()}
	case errors.Is(err, ErrUnsupportedMedia):
		return errorInfo{status: http.StatusUnsupportedMediaType, message: err.Error()}
	case errors.As(err, &maxErr):
		return errorInfo{status: http.StatusRequestEntityTooLarge, message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
	case errors.Is(err, notifications.ErrPublishFailed):
		return errorInfo{status: http.StatusServiceUnavailable, message: notifications.ErrPublishFailed.Error()}
	default:
		return errorInfo{status: http.StatusInternalServerError, message: strings.ReplaceAll(err.Error(), "\n", ": ")}
	}
}

// writeError logs err and answers with its status. Server errors keep their
// message out of production responses.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	ctx := r.Context()
	info := classifyError(err)

	level := slog.LevelWarn
	if info.status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.LogAttrs(ctx, level, "request failed",
		logger.Component("api"),
		logger.Error(err),
		slog.Int("status_code", info.status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	resp := errorResponse{
		Error:     info.message,
		Fields:    info.fields,
		RequestID: requestid.FromContext(ctx),
	}
	if info.status >= http.StatusInternalServerError && environment.IsProduction(ctx) {
		resp.Error = http.StatusText(info.status)
	}
	writeJSON(w, info.status, resp)
}
