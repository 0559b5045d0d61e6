package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/tripweaver/tripweaver/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
// Export handlers override it.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST, PUT and PATCH bodies that are not JSON with 415.
// Requests without a body, such as resume or reset, pass. Media types with
// a +json suffix are accepted.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" || r.ContentLength == 0 || isJSONMediaType(contentType) {
			next.ServeHTTP(w, r)
			return
		}

		problem := models.NewProblem(models.ProblemTypeUnsupportedMedia, "Unsupported media type", http.StatusUnsupportedMediaType, GetRequestID(r.Context()))
		problem.Detail = "Content-Type must be application/json"
		problem.Instance = r.URL.Path
		problem.Write(w)
	})
}

func isJSONMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
