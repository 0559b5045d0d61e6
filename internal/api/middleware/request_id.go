// Package middleware provides HTTP middleware for the trip planning API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-Id"

// maxRequestIDLen bounds client-supplied IDs so they stay usable as log
// fields and problem trace IDs.
const maxRequestIDLen = 64

type requestInfoKey struct{}

// requestInfo is shared by the middleware chain of one request. Inner
// middleware fills in the session so outer ones can log and trace it after
// the handler returns.
type requestInfo struct {
	id        string
	sessionID string
}

// RequestID assigns every request an ID, reusing a well-formed inbound
// X-Request-Id and generating a "req_" ID otherwise. The ID is echoed in
// the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = NewRequestID()
		}

		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

// NewRequestID returns a fresh request ID.
func NewRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:22]
}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, &requestInfo{id: requestID})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// sessionOf returns the session authenticated anywhere below the caller in
// the chain.
func sessionOf(r *http.Request) string {
	if info := infoFrom(r.Context()); info != nil && info.sessionID != "" {
		return info.sessionID
	}
	return GetSessionID(r.Context())
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
