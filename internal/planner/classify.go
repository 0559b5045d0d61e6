package planner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"

	"github.com/tripweaver/tripweaver/internal/provider/resilience"
	"github.com/tripweaver/tripweaver/internal/trip"
)

var serverStatus = regexp.MustCompile(`\b5\d\d\b`)

// Classify maps a failed model call onto the planner error taxonomy.
// Errors already in the taxonomy are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		trip.ErrQuotaExceeded,
		trip.ErrAuthentication,
		trip.ErrMalformedResponse,
		trip.ErrSchemaViolation,
		trip.ErrModelUnavailable,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", trip.ErrAuthentication, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", trip.ErrQuotaExceeded, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"), strings.Contains(msg, "x-api-key"), strings.Contains(msg, "authentication_error"):
		return fmt.Errorf("%w: %w", trip.ErrAuthentication, err)
	case strings.Contains(msg, "quota"), strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %w", trip.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %w", trip.ErrModelUnavailable, err)
}

// Transient reports whether a failed model call is worth retrying: network
// errors, server errors and rate limiting that does not mention a quota.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, trip.ErrMalformedResponse) || errors.Is(err, trip.ErrSchemaViolation) ||
		errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}

	msg := strings.ToLower(err.Error())
	switch status := statusOf(err); {
	case status >= 500:
		return true
	case status == http.StatusTooManyRequests:
		return !strings.Contains(msg, "quota")
	case status != 0:
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return serverStatus.MatchString(msg)
}

func statusOf(err error) int {
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) {
		return claudeErr.StatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var serverErr *resilience.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}
	return 0
}
