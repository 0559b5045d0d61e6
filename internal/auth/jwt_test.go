package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/auth"
)

func newService(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     issuer,
		Audience:   audience,
	})
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newService("test-secret-key-for-testing-only", "https://api.tripweaver.app", "tripweaver-api")

	session, err := svc.IssueSession()
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	sessionID, err := svc.ValidateSessionToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, sessionID)
}

func TestJWTService_IssueSessionIsUnique(t *testing.T) {
	svc := newService("k", "i", "a")

	a, err := svc.IssueSession()
	require.NoError(t, err)
	b, err := svc.IssueSession()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestJWTService_IssueFor(t *testing.T) {
	svc := newService("k", "i", "a")

	session, err := svc.IssueFor("cli")
	require.NoError(t, err)

	sessionID, err := svc.ValidateSessionToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "cli", sessionID)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	svc := newService("k", "i", "a")
	claims := auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "i",
			Audience:  jwt.ClaimStrings{"a"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		SessionID: "s1",
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateSessionToken(unsigned)
	assert.ErrorIs(t, err, auth.ErrInvalidSessionToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = svc.ValidateSessionToken(hs512)
	assert.ErrorIs(t, err, auth.ErrInvalidSessionToken)
}

func TestJWTService_RequiresSessionID(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "i",
			Audience:  jwt.ClaimStrings{"a"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = newService("k", "i", "a").ValidateSessionToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSessionToken)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService("test-secret-key-for-testing-only", "https://api.tripweaver.app", "tripweaver-api")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateSessionToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidSessionToken)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	session, err := newService("key-one", "i", "a").IssueSession()
	require.NoError(t, err)

	_, err = newService("key-two", "i", "a").ValidateSessionToken(session.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidSessionToken)
}

func TestJWTService_WrongIssuerOrAudience(t *testing.T) {
	session, err := newService("k", "issuer-one", "audience-one").IssueSession()
	require.NoError(t, err)

	_, err = newService("k", "issuer-two", "audience-one").ValidateSessionToken(session.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidSessionToken)

	_, err = newService("k", "issuer-one", "audience-two").ValidateSessionToken(session.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidSessionToken)
}

func TestJWTService_Expired(t *testing.T) {
	issued := time.Now().Add(-48 * time.Hour)
	old := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "k",
		Issuer:     "i",
		Audience:   "a",
		Expiry:     time.Hour,
		Now:        func() time.Time { return issued },
	})
	session, err := old.IssueSession()
	require.NoError(t, err)

	_, err = newService("k", "i", "a").ValidateSessionToken(session.Token)
	assert.ErrorIs(t, err, auth.ErrSessionTokenExpired)
}

func TestJWTService_DefaultExpiry(t *testing.T) {
	session, err := newService("k", "i", "a").IssueSession()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultSessionExpiry), session.ExpiresAt, time.Minute)
}
