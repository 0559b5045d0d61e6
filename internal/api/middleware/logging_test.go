package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tripweaver/tripweaver/internal/api/middleware"
)

func accessLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"plan":{}}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/trip", http.NoBody)
	req.Header.Set("User-Agent", "trip-ui/1.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := accessLog(t, &buf)
	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/v1/trip", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(len(`{"plan":{}}`)), entry["bytes"])
	assert.Equal(t, "trip-ui/1.0", entry["user_agent"])
	assert.NotNil(t, entry["duration"])
	assert.NotContains(t, entry, "session_id")
}

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNoContent, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusUnprocessableEntity, "warn"},
		{http.StatusBadGateway, "error"},
		{http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/trip", http.NoBody))

			entry := accessLog(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}
}

func TestLogger_FirstStatusWins(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sessions", http.NoBody))

	assert.Equal(t, float64(http.StatusCreated), accessLog(t, &buf)["status"])
}

func TestLogger_LogsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(middleware.Logger(zerolog.New(&buf)))
	r.Get("/v1/currencies/{base}/rates", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/currencies/USD/rates", http.NoBody))

	entry := accessLog(t, &buf)
	assert.Equal(t, "/v1/currencies/USD/rates", entry["path"])
	assert.Equal(t, "/v1/currencies/{base}/rates", entry["route"])
}

func TestLogger_IncludesRequestAndSessionIDs(t *testing.T) {
	var buf bytes.Buffer
	tokens := newTokenService(nil)
	session, err := tokens.IssueSession()
	require.NoError(t, err)

	handler := middleware.RequestID(
		middleware.Logger(zerolog.New(&buf))(
			middleware.Auth(tokens)(okHandler()),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/trip", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	entry := accessLog(t, &buf)
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), entry["request_id"])
	assert.Equal(t, session.ID, entry["session_id"])
}

func TestLogger_IncludesTraceID(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var buf bytes.Buffer
	handler := middleware.Tracing("tripweaver-test")(
		middleware.Logger(zerolog.New(&buf))(okHandler()),
	)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/trip", http.NoBody))

	entry := accessLog(t, &buf)
	traceID, _ := entry["trace_id"].(string)
	spanID, _ := entry["span_id"].(string)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
}

func TestLogger_DefaultStatusCode(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("BEGIN:VCALENDAR"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/trip/export.ics", http.NoBody))

	assert.Equal(t, float64(200), accessLog(t, &buf)["status"])
}
