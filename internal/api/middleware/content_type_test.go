package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripweaver/tripweaver/internal/api/middleware"
)

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		want        int
	}{
		{"json", http.MethodPost, "application/json", `{"destination":"Paris"}`, http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"problem json suffix", http.MethodPatch, "application/merge-patch+json", `{}`, http.StatusOK},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", "destination=Paris", http.StatusUnsupportedMediaType},
		{"plain text", http.MethodPut, "text/plain", "Paris", http.StatusUnsupportedMediaType},
		{"malformed media type", http.MethodPost, "application/", "x", http.StatusUnsupportedMediaType},
		{"empty body", http.MethodPost, "text/plain", "", http.StatusOK},
		{"no content type", http.MethodPost, "", `{}`, http.StatusOK},
		{"get ignored", http.MethodGet, "text/plain", "", http.StatusOK},
	}

	handler := middleware.RequireJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/trip", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestContentTypeJSON_DefaultsAndDefers(t *testing.T) {
	jsonHandler := middleware.ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	jsonHandler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trip", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	pdfHandler := middleware.ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
	}))
	w = httptest.NewRecorder()
	pdfHandler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trip/export.pdf", nil))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}
