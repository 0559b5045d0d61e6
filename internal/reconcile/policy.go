package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tripweaver/tripweaver/internal/schema"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// Destination applies the advisory policy: any parse or schema failure,
// reported through the second return value, yields a valid result carrying
// the original input.
func Destination(raw, input string) (trip.DestinationResult, error) {
	var res trip.DestinationResult
	if err := Decode(raw, schema.DestinationValidation, &res); err != nil {
		return Fallback(input), err
	}
	if res.IsValid && strings.TrimSpace(res.CorrectedName) == "" {
		res.CorrectedName = input
	}
	if !res.IsValid {
		res.CorrectedName = ""
	}
	return res, nil
}

// Fallback is the result used when a destination cannot be checked.
func Fallback(input string) trip.DestinationResult {
	return trip.DestinationResult{IsValid: true, CorrectedName: input}
}

// Plan decodes a full itinerary. Errors are returned to the caller as-is.
// Every day and activity receives a stable identifier.
func Plan(raw string) (*trip.Plan, error) {
	var plan trip.Plan
	if err := Decode(raw, schema.Plan, &plan); err != nil {
		return nil, fmt.Errorf("reconciling plan: %w", err)
	}
	plan.AssignIDs()
	return &plan, nil
}

// Activity decodes a replacement activity and gives it a fresh identifier.
// Both parse and shape failures are reported as a malformed response.
func Activity(raw string) (*trip.Activity, error) {
	var a trip.Activity
	if err := Decode(raw, schema.Activity, &a); err != nil {
		if errors.Is(err, trip.ErrMalformedResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", trip.ErrMalformedResponse, err)
	}
	a.ID = uuid.NewString()
	a.ImageURL = ""
	return &a, nil
}
