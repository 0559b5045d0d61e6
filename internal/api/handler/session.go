package handler

import (
	"net/http"

	"github.com/tripweaver/tripweaver/internal/api/models"
	"github.com/tripweaver/tripweaver/internal/api/response"
	"github.com/tripweaver/tripweaver/internal/auth"
)

// SessionHandler issues anonymous planning sessions.
type SessionHandler struct {
	tokens *auth.JWTService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(tokens *auth.JWTService) *SessionHandler {
	return &SessionHandler{tokens: tokens}
}

// CreateSession handles POST /v1/sessions - issue a session token.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.tokens.IssueSession()
	if err != nil {
		response.InternalError(w, r, "unable to issue session")
		return
	}

	response.Created(w, r, "", models.SessionResponse{
		SessionID: session.ID,
		Token:     session.Token,
		ExpiresAt: models.Timestamp(session.ExpiresAt),
	})
}
