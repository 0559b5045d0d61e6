package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/api/middleware"
	"github.com/tripweaver/tripweaver/internal/api/models"
)

// sender issues requests through handler and returns the status codes.
func sender(handler http.Handler) func(sessionID, ip string) int {
	return func(sessionID, ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/trip", http.NoBody)
		req.RemoteAddr = ip
		if sessionID != "" {
			req = req.WithContext(middleware.WithSessionID(req.Context(), sessionID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
}

func TestRateLimitByIP(t *testing.T) {
	send := sender(middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute})(okHandler()))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send("", "10.0.0.1:1000"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, send("", "10.0.0.1:1000"))

	// Source port does not matter, other addresses have their own budget.
	assert.Equal(t, http.StatusTooManyRequests, send("", "10.0.0.1:2000"))
	assert.Equal(t, http.StatusOK, send("", "10.0.0.2:1000"))
}

func TestRateLimitBySession_KeysOnSession(t *testing.T) {
	send := sender(middleware.RateLimitBySession(middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute})(okHandler()))

	// A session keeps its budget across addresses.
	assert.Equal(t, http.StatusOK, send("sess-a", "192.168.1.1:12345"))
	assert.Equal(t, http.StatusOK, send("sess-a", "192.168.1.2:12345"))
	assert.Equal(t, http.StatusTooManyRequests, send("sess-a", "192.168.1.3:12345"))

	assert.Equal(t, http.StatusOK, send("sess-b", "192.168.1.1:12345"))

	// Without a session the client IP is the key.
	assert.Equal(t, http.StatusOK, send("", "198.51.100.7:1"))
	assert.Equal(t, http.StatusOK, send("", "198.51.100.7:1"))
	assert.Equal(t, http.StatusTooManyRequests, send("", "198.51.100.7:1"))
}

func TestRateLimit_ProblemResponse(t *testing.T) {
	tests := []struct {
		name       string
		window     time.Duration
		retryAfter string
	}{
		{"minute window", time.Minute, "60"},
		{"fractional window rounds up", 1500 * time.Millisecond, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequestID(
				middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: tt.window})(okHandler()),
			)

			do := func() *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodPost, "/v1/trip/activities:swap", http.NoBody)
				req.RemoteAddr = "203.0.113.1:12345"
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				return rec
			}

			require.Equal(t, http.StatusOK, do().Code)
			rec := do()

			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))

			var problem models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, models.ProblemTypeTooManyRequests, problem.Type)
			assert.Equal(t, "/v1/trip/activities:swap", problem.Instance)
			assert.Equal(t, rec.Header().Get(middleware.HeaderRequestID), problem.TraceID)
		})
	}
}

func TestDefaultRateLimitBudgets(t *testing.T) {
	budgets := []middleware.RateLimitConfig{
		middleware.SessionRateLimit,
		middleware.ExpensiveRateLimit,
		middleware.ValidateRateLimit,
		middleware.StandardRateLimit,
	}
	for _, b := range budgets {
		assert.Equal(t, time.Minute, b.WindowLength)
	}

	assert.Equal(t, 10, middleware.ExpensiveRateLimit.RequestLimit)
	assert.Less(t, middleware.ExpensiveRateLimit.RequestLimit, middleware.ValidateRateLimit.RequestLimit)
	assert.Less(t, middleware.ValidateRateLimit.RequestLimit, middleware.StandardRateLimit.RequestLimit)
}
