package models

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tripweaver/tripweaver/internal/trip"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError points a validation failure at one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://api.tripweaver.app/problems/"

// Problem types.
const (
	ProblemTypeValidation       = problemBase + "validation-error"
	ProblemTypeInvalidDest      = problemBase + "invalid-destination"
	ProblemTypeUnauthorized     = problemBase + "unauthorized"
	ProblemTypeTLSRequired      = problemBase + "tls-required"
	ProblemTypeNotFound         = problemBase + "not-found"
	ProblemTypeUnsupportedMedia = problemBase + "unsupported-media-type"
	ProblemTypeTooManyRequests  = problemBase + "too-many-requests"
	ProblemTypeQuotaExceeded    = problemBase + "quota-exceeded"
	ProblemTypeInternal         = problemBase + "internal-error"
	ProblemTypeUpstream         = problemBase + "upstream-error"
	ProblemTypeUnavailable      = problemBase + "service-unavailable"
)

// NewProblem returns a problem without detail.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{Type: problemType, Title: title, Status: status, TraceID: traceID}
}

func detailed(problemType, title string, status int, traceID, detail string) *Problem {
	p := NewProblem(problemType, title, status, traceID)
	p.Detail = detail
	return p
}

// Write sends p with its status. The trace ID doubles as X-Request-Id.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest is a 400 with optional field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := detailed(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

// NewUnauthorized is a 401.
func NewUnauthorized(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID, detail)
}

// NewNotFound is a 404.
func NewNotFound(traceID, detail string) *Problem {
	return detailed(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID, detail)
}

// NewUnprocessable is a 422 for a destination the model did not recognise.
func NewUnprocessable(traceID, detail string) *Problem {
	return detailed(ProblemTypeInvalidDest, "Invalid destination", http.StatusUnprocessableEntity, traceID, detail)
}

// NewTooManyRequests is a 429 from the request rate limiter.
func NewTooManyRequests(traceID, detail string) *Problem {
	return detailed(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID, detail)
}

// NewQuotaExceeded is a 429 for an exhausted model quota. It is told apart
// from rate limiting by its type.
func NewQuotaExceeded(traceID, detail string) *Problem {
	return detailed(ProblemTypeQuotaExceeded, "Quota exceeded", http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError is a 500.
func NewInternalError(traceID, detail string) *Problem {
	return detailed(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID, detail)
}

// NewBadGateway is a 502 for a model that rejected our credentials or
// answered with an unusable document.
func NewBadGateway(traceID, detail string) *Problem {
	return detailed(ProblemTypeUpstream, "Upstream error", http.StatusBadGateway, traceID, detail)
}

// NewServiceUnavailable is a 503.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID, detail)
}

// FromError maps a planning error onto a problem. The detail is the
// traveller-facing message for op; causes never reach the body.
func FromError(traceID string, op trip.Operation, err error) *Problem {
	detail := trip.UserMessage(op, err)

	var verr *trip.ValidationError
	if errors.As(err, &verr) {
		return NewBadRequest(traceID, detail, []FieldError{{Field: verr.Field, Message: verr.Message, Code: "INVALID"}})
	}
	switch {
	case errors.Is(err, trip.ErrInvalidPreferences):
		return NewBadRequest(traceID, detail, nil)
	case errors.Is(err, trip.ErrInvalidDestination):
		return NewUnprocessable(traceID, detail)
	case errors.Is(err, trip.ErrNoPlan), errors.Is(err, trip.ErrActivityNotFound), errors.Is(err, trip.ErrNoSnapshot):
		return NewNotFound(traceID, detail)
	case errors.Is(err, trip.ErrQuotaExceeded):
		return NewQuotaExceeded(traceID, detail)
	case errors.Is(err, trip.ErrAuthentication), errors.Is(err, trip.ErrMalformedResponse), errors.Is(err, trip.ErrSchemaViolation):
		return NewBadGateway(traceID, detail)
	default:
		return NewServiceUnavailable(traceID, detail)
	}
}
