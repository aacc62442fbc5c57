package app_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/internal/app"
	"github.com/dmitrymomot/notifyrelay/pkg/broadcast"
	"github.com/dmitrymomot/notifyrelay/pkg/environment"
	"github.com/dmitrymomot/notifyrelay/pkg/health"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/rabbitmq"
	"github.com/dmitrymomot/notifyrelay/pkg/requestid"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendEmail(ctx context.Context, p notifications.EmailPayload) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockNotifier) SendWebSocket(ctx context.Context, p notifications.WebSocketPayload) error {
	return m.Called(ctx, p).Error(0)
}

type stubBroker struct{ healthy bool }

func (b stubBroker) IsHealthy() bool { return b.healthy }

func (b stubBroker) Inspect(queue string) (rabbitmq.QueueState, error) {
	return rabbitmq.QueueState{Name: queue, Messages: 2, Consumers: 1}, nil
}

type stubTemplates []string

func (s stubTemplates) ListTemplates() ([]string, error) { return s, nil }

func newRouter(t *testing.T, n app.Notifier, env environment.Environment) http.Handler {
	t.Helper()
	return app.NewRouter(app.RouterDeps{
		Notifier:  n,
		Templates: stubTemplates{"password_reset", "welcome"},
		Probe:     health.NewProbe(stubBroker{healthy: true}, notifications.NewMemoryStorage().Ping, []string{"email_notifications"}),
		Env:       env,
		Logger:    logger.Discard(),
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestSendEmailEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		n := &MockNotifier{}
		n.On("SendEmail", mock.Anything, mock.MatchedBy(func(p notifications.EmailPayload) bool {
			return p.To == "user@example.com" && p.TemplateName == "welcome" && p.RequestID != ""
		})).Return(nil).Once()

		rec := do(newRouter(t, n, environment.Development), http.MethodPost, "/api/v1/notifications/email",
			`{"to":"user@example.com","subject":"Hi","templateName":"welcome","data":{"name":"Ada"},"requestId":"spoofed"}`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(requestid.Header))
		assert.Equal(t, map[string]any{"message": "Email notification queued"}, decodeBody(t, rec))
		n.AssertExpectations(t)
		assert.NotEqual(t, "spoofed", n.Calls[0].Arguments.Get(1).(notifications.EmailPayload).RequestID)
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Parallel()

		n := &MockNotifier{}
		n.On("SendEmail", mock.Anything, mock.Anything).
			Return(notifications.EmailPayload{Data: map[string]any{}}.Validate()).Once()

		rec := do(newRouter(t, n, environment.Production), http.MethodPost, "/api/v1/notifications/email", `{"data":{}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Contains(t, body["error"], "to")
		assert.NotEmpty(t, body["fields"])
		assert.NotEmpty(t, body["requestId"])
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		n := &MockNotifier{}
		rec := do(newRouter(t, n, environment.Development), http.MethodPost, "/api/v1/notifications/email", `{"to":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		valid := `{"to":"user@example.com","subject":"Hi","templateName":"welcome","data":{}}`
		for _, body := range []string{`{} {}`, valid + ` }`, valid + `]`, valid + ` x`} {
			rec = do(newRouter(t, n, environment.Development), http.MethodPost, "/api/v1/notifications/email", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
		n.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/email", strings.NewReader("to=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		newRouter(t, &MockNotifier{}, environment.Development).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("server errors are hidden in production", func(t *testing.T) {
		t.Parallel()

		n := &MockNotifier{}
		n.On("SendEmail", mock.Anything, mock.Anything).Return(notifications.ErrStorageFailure)

		rec := do(newRouter(t, n, environment.Production), http.MethodPost, "/api/v1/notifications/email",
			`{"to":"user@example.com","subject":"Hi","templateName":"welcome","data":{}}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", decodeBody(t, rec)["error"])

		rec = do(newRouter(t, n, environment.Development), http.MethodPost, "/api/v1/notifications/email",
			`{"to":"user@example.com","subject":"Hi","templateName":"welcome","data":{}}`)
		assert.Equal(t, notifications.ErrStorageFailure.Error(), decodeBody(t, rec)["error"])
	})

	t.Run("broker unavailable", func(t *testing.T) {
		t.Parallel()

		n := &MockNotifier{}
		n.On("SendEmail", mock.Anything, mock.Anything).Return(notifications.ErrPublishFailed)

		rec := do(newRouter(t, n, environment.Development), http.MethodPost, "/api/v1/notifications/email",
			`{"to":"user@example.com","subject":"Hi","templateName":"welcome","data":{}}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestSendWebSocketEndpoint(t *testing.T) {
	t.Parallel()

	n := &MockNotifier{}
	n.On("SendWebSocket", mock.Anything, mock.MatchedBy(func(p notifications.WebSocketPayload) bool {
		return p.UserID == "u1" && p.Event == "order.shipped"
	})).Return(nil).Once()

	rec := do(newRouter(t, n, environment.Development), http.MethodPost, "/api/v1/notifications/websocket",
		`{"userId":"u1","event":"order.shipped","data":{"orderId":"42"}}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, map[string]any{"message": "WebSocket notification queued"}, decodeBody(t, rec))
	n.AssertExpectations(t)
}

func TestAuxiliaryRoutes(t *testing.T) {
	t.Parallel()

	h := newRouter(t, &MockNotifier{}, environment.Development)

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"email_notifications": map[string]any{"depth": float64(2), "consumerCount": float64(1)}}, body["queues"])

	rec = do(h, http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/notifications/email/templates", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"templates": []any{"password_reset", "welcome"}}, decodeBody(t, rec))

	rec = do(h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route GET /nope Not Found", decodeBody(t, rec)["error"])

	rec = do(h, http.MethodGet, "/api/v1/notifications/email", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEventStream(t *testing.T) {
	t.Parallel()

	rooms := broadcast.NewRooms[broadcast.Event]()
	defer rooms.Close()

	srv := httptest.NewServer(app.NewRouter(app.RouterDeps{
		Notifier: &MockNotifier{},
		Events:   rooms,
		Logger:   logger.Discard(),
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events/u1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return rooms.Listeners("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	n, err := rooms.Emit(ctx, "u1", broadcast.Event{Name: "order.shipped", Data: map[string]any{"orderId": "42"}, At: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}

	assert.Equal(t, "order.shipped", eventLine)
	var ev broadcast.Event
	require.NoError(t, json.Unmarshal([]byte(dataLine), &ev))
	assert.Equal(t, "42", ev.Data["orderId"])
}

func TestEventStream_EndsWhenStreamsDone(t *testing.T) {
	t.Parallel()

	rooms := broadcast.NewRooms[broadcast.Event]()
	defer rooms.Close()

	streamsDone := make(chan struct{})
	srv := httptest.NewServer(app.NewRouter(app.RouterDeps{
		Notifier:    &MockNotifier{},
		Events:      rooms,
		Logger:      logger.Discard(),
		StreamsDone: streamsDone,
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events/u1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return rooms.Listeners("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	close(streamsDone)

	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err, "stream ends with a clean EOF")
	require.Eventually(t, func() bool { return rooms.Listeners("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
