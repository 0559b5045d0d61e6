package models_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/api/models"
	"github.com/tripweaver/tripweaver/internal/trip"
)

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "budget", Message: "unknown budget"},
	})
	p.Instance = "/v1/trip"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{
		"type": "https://api.tripweaver.app/problems/validation-error",
		"title": "Validation error",
		"status": 400,
		"detail": "invalid input",
		"instance": "/v1/trip",
		"traceId": "req_test123",
		"errors": [{"field": "budget", "message": "unknown budget"}]
	}`, w.Body.String())
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewProblem(models.ProblemTypeTLSRequired, "TLS required", http.StatusForbidden, "").Write(w)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("X-Request-Id"))

	var got models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got.Detail)
	assert.Nil(t, got.Errors)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		p      *models.Problem
		typ    string
		title  string
		status int
	}{
		{"bad request", models.NewBadRequest("req_123", "d", nil), models.ProblemTypeValidation, "Validation error", http.StatusBadRequest},
		{"unauthorized", models.NewUnauthorized("req_123", "d"), models.ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized},
		{"not found", models.NewNotFound("req_123", "d"), models.ProblemTypeNotFound, "Not found", http.StatusNotFound},
		{"unprocessable", models.NewUnprocessable("req_123", "d"), models.ProblemTypeInvalidDest, "Invalid destination", http.StatusUnprocessableEntity},
		{"rate limited", models.NewTooManyRequests("req_123", "d"), models.ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests},
		{"quota", models.NewQuotaExceeded("req_123", "d"), models.ProblemTypeQuotaExceeded, "Quota exceeded", http.StatusTooManyRequests},
		{"internal", models.NewInternalError("req_123", "d"), models.ProblemTypeInternal, "Internal server error", http.StatusInternalServerError},
		{"bad gateway", models.NewBadGateway("req_123", "d"), models.ProblemTypeUpstream, "Upstream error", http.StatusBadGateway},
		{"unavailable", models.NewServiceUnavailable("req_123", "d"), models.ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.p.Type)
			assert.Equal(t, tt.title, tt.p.Title)
			assert.Equal(t, tt.status, tt.p.Status)
			assert.Equal(t, "d", tt.p.Detail)
			assert.Equal(t, "req_123", tt.p.TraceID)
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		op         trip.Operation
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{"invalid preferences", trip.OpGenerate, &trip.ValidationError{Field: "duration", Message: trip.MsgDurationTooLong}, http.StatusBadRequest, models.ProblemTypeValidation, trip.MsgDurationTooLong},
		{"invalid destination", trip.OpGenerate, fmt.Errorf("checking: %w", trip.ErrInvalidDestination), http.StatusUnprocessableEntity, models.ProblemTypeInvalidDest, trip.MsgInvalidDestination},
		{"no plan", trip.OpSwap, trip.ErrNoPlan, http.StatusNotFound, models.ProblemTypeNotFound, "There is no itinerary yet. Generate one first."},
		{"activity not found", trip.OpSwap, trip.ErrActivityNotFound, http.StatusNotFound, models.ProblemTypeNotFound, "That activity is no longer part of the itinerary."},
		{"no snapshot", trip.OpGenerate, trip.ErrNoSnapshot, http.StatusNotFound, models.ProblemTypeNotFound, "No saved trip was found."},
		{"quota", trip.OpGenerate, trip.ErrQuotaExceeded, http.StatusTooManyRequests, models.ProblemTypeQuotaExceeded, trip.MsgQuotaExceeded},
		{"authentication", trip.OpGenerate, trip.ErrAuthentication, http.StatusBadGateway, models.ProblemTypeUpstream, trip.MsgAuthentication},
		{"malformed plan", trip.OpGenerate, trip.ErrMalformedResponse, http.StatusBadGateway, models.ProblemTypeUpstream, trip.MsgPlanMalformed},
		{"malformed swap", trip.OpSwap, trip.ErrSchemaViolation, http.StatusBadGateway, models.ProblemTypeUpstream, trip.MsgSwapMalformed},
		{"generate failed", trip.OpGenerate, trip.ErrModelUnavailable, http.StatusServiceUnavailable, models.ProblemTypeUnavailable, trip.MsgPlanFailed},
		{"swap failed", trip.OpSwap, errors.New("connection reset"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable, trip.MsgSwapFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.FromError("req_123", tt.op, tt.err)

			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantDetail, p.Detail)
			assert.Equal(t, "req_123", p.TraceID)
		})
	}
}

func TestFromError_FieldErrors(t *testing.T) {
	p := models.FromError("req_123", trip.OpGenerate, &trip.ValidationError{Field: "budget", Message: "unknown budget"})

	require.Len(t, p.Errors, 1)
	assert.Equal(t, "budget", p.Errors[0].Field)
	assert.Equal(t, "unknown budget", p.Errors[0].Message)
}
