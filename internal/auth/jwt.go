// Package auth issues and verifies the signed tokens that bind an HTTP client
// to one planning session.
//
// A planning session has no account behind it. POST /v1/sessions mints a
// random session ID and returns it inside an HS256 token, and every plan
// endpoint reads the session ID back from the bearer token. Losing the token
// loses access to the in-memory plan; the persisted snapshot stays under its
// key until it expires or is dismissed.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionExpiry is how long a session token is valid.
const DefaultSessionExpiry = 7 * 24 * time.Hour

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrSessionTokenExpired = errors.New("session token has expired")
)

// SessionClaims are the claims of a session token. The session ID is
// carried both as the subject and as sid.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Session is a freshly issued token.
type Session struct {
	ID        string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// JWTConfig configures a JWTService.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string

	// Expiry is the token lifetime. Zero means DefaultSessionExpiry.
	Expiry time.Duration

	// Now is the clock for issuing and validating. Nil means time.Now.
	Now func() time.Time
}

// JWTService signs and verifies session tokens with one shared key.
type JWTService struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
	issuer string
	aud    string
	parser *jwt.Parser
}

// NewJWTService builds a JWTService from cfg.
func NewJWTService(cfg JWTConfig) *JWTService {
	s := &JWTService{
		key:    []byte(cfg.SigningKey),
		expiry: cfg.Expiry,
		now:    cfg.Now,
		issuer: cfg.Issuer,
		aud:    cfg.Audience,
	}
	if s.expiry <= 0 {
		s.expiry = DefaultSessionExpiry
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.aud),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return s
}

// IssueSession mints a new session ID and signs a token for it.
func (s *JWTService) IssueSession() (*Session, error) {
	return s.IssueFor(uuid.NewString())
}

// IssueFor signs a token for an existing session ID, such as the fixed
// session the CLI plans under.
func (s *JWTService) IssueFor(sessionID string) (*Session, error) {
	issued := s.now()
	expires := issued.Add(s.expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   sessionID,
			Audience:  jwt.ClaimStrings{s.aud},
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		SessionID: sessionID,
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}
	return &Session{ID: sessionID, Token: signed, ExpiresAt: expires}, nil
}

// ValidateSessionToken checks the signature, issuer, audience and expiry of
// raw and returns its session ID. Expired tokens yield
// ErrSessionTokenExpired; every other failure wraps ErrInvalidSessionToken.
func (s *JWTService) ValidateSessionToken(raw string) (string, error) {
	var claims SessionClaims
	_, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrSessionTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	case claims.SessionID == "":
		return "", fmt.Errorf("%w: no session id", ErrInvalidSessionToken)
	}
	return claims.SessionID, nil
}
