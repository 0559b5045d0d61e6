// Package handler provides HTTP handlers for the trip planning API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tripweaver/tripweaver/internal/api/middleware"
)

// maxBodyBytes bounds request bodies. Preferences are small.
const maxBodyBytes = 64 << 10

// GetSessionID retrieves the authenticated session ID from the context.
// This is a convenience wrapper around middleware.GetSessionID.
func GetSessionID(ctx context.Context) string {
	return middleware.GetSessionID(ctx)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
