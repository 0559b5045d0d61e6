// Package models provides request and response bodies for the trip planning API.
package models

import (
	"time"

	"github.com/tripweaver/tripweaver/internal/trip"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// SessionResponse carries a freshly issued session token.
type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt Timestamp `json:"expiresAt"`
}

// ValidateDestinationRequest is the body of POST /v1/destinations:validate.
type ValidateDestinationRequest struct {
	Destination string `json:"destination"`
}

// ValidateDestinationResponse reports whether a destination is real.
// CorrectedName is omitted when it equals the input ignoring case.
type ValidateDestinationResponse struct {
	IsValid       bool   `json:"isValid"`
	CorrectedName string `json:"correctedName,omitempty"`
}

// SwapActivityRequest addresses the activity to replace, either by its ID or
// by position.
type SwapActivityRequest struct {
	ActivityID    string `json:"activityId,omitempty"`
	DayIndex      *int   `json:"dayIndex,omitempty"`
	ActivityIndex *int   `json:"activityIndex,omitempty"`
}

// ImageSummary counts the illustrations attempted for a plan.
type ImageSummary struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// TripResponse is the current plan of a session.
type TripResponse struct {
	Plan        *trip.Plan       `json:"plan"`
	Preferences trip.Preferences `json:"preferences"`
	Version     uint64           `json:"version"`

	// Persisted is false when the plan is live but the snapshot write
	// failed. It is omitted on reads.
	Persisted    *bool         `json:"persisted,omitempty"`
	PersistError string        `json:"persistError,omitempty"`
	Images       *ImageSummary `json:"images,omitempty"`
	Anomalies    []string      `json:"anomalies,omitempty"`
}

// SwapActivityResponse is the outcome of a swap.
type SwapActivityResponse struct {
	Activity  trip.Activity `json:"activity"`
	WithImage bool          `json:"withImage"`
	Trip      TripResponse  `json:"trip"`
}

// SavedTripResponse describes a persisted snapshot without loading it.
type SavedTripResponse struct {
	Destination string           `json:"destination"`
	StartDate   string           `json:"startDate"`
	Duration    int              `json:"duration"`
	Days        int              `json:"days"`
	SavedAt     Timestamp        `json:"savedAt"`
	Preferences trip.Preferences `json:"preferences"`
}

// ActivityPrice is one converted activity cost.
type ActivityPrice struct {
	ID          string `json:"id,omitempty"`
	Day         int    `json:"day"`
	Time        string `json:"time"`
	Description string `json:"description"`
	Original    string `json:"original"`
	Converted   string `json:"converted"`
}

// HotelPrice is one converted hotel price range.
type HotelPrice struct {
	Day       int    `json:"day"`
	Name      string `json:"name"`
	Original  string `json:"original"`
	Converted string `json:"converted"`
}

// PricesResponse lists the plan's costs in a target currency.
type PricesResponse struct {
	Base       string          `json:"base"`
	Currency   string          `json:"currency"`
	Activities []ActivityPrice `json:"activities"`
	Hotels     []HotelPrice    `json:"hotels"`
}

// RatesResponse is the price reference for a base currency.
type RatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
	Time  Timestamp          `json:"time"`
}

// EmailExportResponse carries the shareable itinerary text.
type EmailExportResponse struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	MailtoURL string `json:"mailtoUrl"`
}

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Remove quotes
	s := string(data[1 : len(data)-1])
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
