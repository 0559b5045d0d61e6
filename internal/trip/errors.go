package trip

import (
	"errors"
)

// Planner errors. Callers match them with errors.Is.
var (
	ErrInvalidDestination = errors.New("invalid destination")
	ErrInvalidPreferences = errors.New("invalid preferences")
	ErrMalformedResponse  = errors.New("malformed model response")
	ErrSchemaViolation    = errors.New("model response does not match schema")
	ErrImageGeneration    = errors.New("image generation failed")
	ErrQuotaExceeded      = errors.New("model quota exceeded")
	ErrAuthentication     = errors.New("model authentication failed")
	ErrModelUnavailable   = errors.New("model unavailable")
	ErrPersistence        = errors.New("snapshot persistence failed")
	ErrNoPlan             = errors.New("no plan for session")
	ErrNoSnapshot         = errors.New("no saved trip")
	ErrActivityNotFound   = errors.New("activity not found")
)

// Operation identifies which planner call produced an error.
type Operation string

const (
	OpValidate Operation = "validate"
	OpGenerate Operation = "generate"
	OpSwap     Operation = "swap"
)

// User-facing messages.
const (
	MsgInvalidDestination = "Please enter a valid travel destination. The location you entered could not be found."
	MsgQuotaExceeded      = "API quota exceeded. Please check your usage limits and billing, then try again later."
	MsgAuthentication     = "The API Key is invalid or missing. Please ensure it is configured correctly."
	MsgPlanMalformed      = "The AI returned an invalid response. Please try generating the itinerary again."
	MsgPlanFailed         = "Failed to generate itinerary. The AI may be busy or the request was invalid. Please try again."
	MsgSwapMalformed      = "The AI returned an invalid format. Please try again."
	MsgSwapFailed         = "Failed to get a new activity from the AI. It might be busy. Please try again."
	MsgDurationTooLong    = "Planning for more than 30 days is coming soon in our premium version!"
)

// ValidationError carries a user-facing reason for rejected preferences.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match ErrInvalidPreferences.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidPreferences
}

// UserMessage returns the text shown to a traveller for an error raised by op.
func UserMessage(op Operation, err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrInvalidDestination):
		return MsgInvalidDestination
	case errors.Is(err, ErrQuotaExceeded):
		return MsgQuotaExceeded
	case errors.Is(err, ErrAuthentication):
		return MsgAuthentication
	case errors.Is(err, ErrNoPlan):
		return "There is no itinerary yet. Generate one first."
	case errors.Is(err, ErrActivityNotFound):
		return "That activity is no longer part of the itinerary."
	case errors.Is(err, ErrNoSnapshot):
		return "No saved trip was found."
	}

	malformed := errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrSchemaViolation)
	switch op {
	case OpSwap:
		if malformed {
			return MsgSwapMalformed
		}
		return MsgSwapFailed
	case OpGenerate:
		if malformed {
			return MsgPlanMalformed
		}
		return MsgPlanFailed
	default:
		return "An unexpected error occurred."
	}
}
