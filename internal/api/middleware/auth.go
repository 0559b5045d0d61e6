package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tripweaver/tripweaver/internal/api/models"
	"github.com/tripweaver/tripweaver/internal/auth"
)

type sessionIDKey struct{}

const bearerScheme = "bearer"

// Auth requires a session bearer token and puts its session ID in the
// request context. Failures are 401 problems with a WWW-Authenticate
// challenge.
func Auth(tokens *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := bearerToken(r.Header.Get("Authorization"))
			if detail != "" {
				unauthorized(w, r, detail)
				return
			}

			sessionID, err := tokens.ValidateSessionToken(token)
			switch {
			case errors.Is(err, auth.ErrSessionTokenExpired):
				unauthorized(w, r, "session token has expired")
				return
			case err != nil:
				unauthorized(w, r, "invalid session token")
				return
			}

			if info := infoFrom(r.Context()); info != nil {
				info.sessionID = sessionID
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// bearerToken extracts the token from an Authorization header value. A
// non-empty detail explains why there is none.
func bearerToken(header string) (token, detail string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", "invalid authorization header format"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

// unauthorized is written here rather than through the response package,
// which imports this one.
func unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	w.Header().Set("WWW-Authenticate", `Bearer realm="tripweaver"`)
	problem.Write(w)
}

// WithSessionID returns ctx carrying sessionID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// GetSessionID returns the authenticated session ID, or "" when the request
// carried no valid token.
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
