package trip

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validate checks the preferences before any model call is made.
func (p Preferences) Validate() error {
	if strings.TrimSpace(p.Destination) == "" {
		return &ValidationError{Field: "destination", Message: "Please enter a travel destination."}
	}
	if _, err := p.Start(); err != nil {
		return &ValidationError{Field: "startDate", Message: "Please enter a start date as YYYY-MM-DD."}
	}
	if p.Duration <= 0 {
		return &ValidationError{Field: "duration", Message: "Trip duration must be at least one day."}
	}
	if p.Duration > MaxDurationDays {
		return &ValidationError{Field: "duration", Message: MsgDurationTooLong}
	}
	if !slices.Contains(Companions, p.Companion) {
		return &ValidationError{Field: "companion", Message: fmt.Sprintf("Unknown companion type %q.", p.Companion)}
	}
	if len(p.Activities) == 0 {
		return &ValidationError{Field: "activities", Message: "Please select at least one activity type."}
	}
	for _, a := range p.Activities {
		if !slices.Contains(ActivityTypes, a) {
			return &ValidationError{Field: "activities", Message: fmt.Sprintf("Unknown activity type %q.", a)}
		}
	}
	if !slices.Contains(Budgets, p.Budget) {
		return &ValidationError{Field: "budget", Message: fmt.Sprintf("Unknown budget %q.", p.Budget)}
	}
	if !slices.Contains(Paces, p.Pace) {
		return &ValidationError{Field: "pace", Message: fmt.Sprintf("Unknown pace %q.", p.Pace)}
	}
	return nil
}

// InterestList joins the selected interests for display.
func (p Preferences) InterestList() string {
	parts := make([]string, len(p.Activities))
	for i, a := range p.Activities {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.Itinerary = make([]Day, len(p.Itinerary))
	for i, d := range p.Itinerary {
		d.Activities = slices.Clone(d.Activities)
		out.Itinerary[i] = d
	}
	out.WeatherForecast = slices.Clone(p.WeatherForecast)
	out.UpcomingEvents = slices.Clone(p.UpcomingEvents)
	out.SafetyTips = SafetyTips{
		CulturalEtiquette: slices.Clone(p.SafetyTips.CulturalEtiquette),
		ScamsToAvoid:      slices.Clone(p.SafetyTips.ScamsToAvoid),
		GeneralAdvice:     slices.Clone(p.SafetyTips.GeneralAdvice),
	}
	out.PackingList = slices.Clone(p.PackingList)
	out.HotelSuggestions = slices.Clone(p.HotelSuggestions)
	return &out
}

// WithoutImages returns a deep copy with every image reference removed.
func (p *Plan) WithoutImages() *Plan {
	out := p.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Itinerary {
		for j := range out.Itinerary[i].Activities {
			out.Itinerary[i].Activities[j].ImageURL = ""
		}
	}
	return out
}

// AssignIDs gives every day and activity without an identifier a fresh one.
func (p *Plan) AssignIDs() {
	for i := range p.Itinerary {
		if p.Itinerary[i].ID == "" {
			p.Itinerary[i].ID = uuid.NewString()
		}
		for j := range p.Itinerary[i].Activities {
			if p.Itinerary[i].Activities[j].ID == "" {
				p.Itinerary[i].Activities[j].ID = uuid.NewString()
			}
		}
	}
}

// ActivityCount returns the number of activities across all days.
func (p *Plan) ActivityCount() int {
	n := 0
	for _, d := range p.Itinerary {
		n += len(d.Activities)
	}
	return n
}

// ImageCount returns the number of activities carrying an image.
func (p *Plan) ImageCount() int {
	n := 0
	for _, d := range p.Itinerary {
		for _, a := range d.Activities {
			if a.ImageURL != "" {
				n++
			}
		}
	}
	return n
}

// Locate finds an activity by identifier.
func (p *Plan) Locate(activityID string) (dayIdx, actIdx int, ok bool) {
	for i, d := range p.Itinerary {
		for j, a := range d.Activities {
			if a.ID == activityID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// DayDate returns the calendar date of the day at dayIdx.
func DayDate(prefs Preferences, dayIdx int) (time.Time, bool) {
	start, err := prefs.Start()
	if err != nil {
		return time.Time{}, false
	}
	return start.AddDate(0, 0, dayIdx), true
}

// Anomalies cross-checks the plan against the preferences it was built for.
// The findings are advisory and never block a plan.
func (p *Plan) Anomalies(prefs Preferences) []string {
	var findings []string

	if len(p.Itinerary) != prefs.Duration {
		findings = append(findings, fmt.Sprintf("expected %d days, got %d", prefs.Duration, len(p.Itinerary)))
	}
	if len(p.WeatherForecast) != len(p.Itinerary) {
		findings = append(findings, fmt.Sprintf("expected %d weather entries, got %d", len(p.Itinerary), len(p.WeatherForecast)))
	}

	minPerDay, maxPerDay := prefs.Pace.Density()
	for i, d := range p.Itinerary {
		if d.Day != i+1 {
			findings = append(findings, fmt.Sprintf("day %d is numbered %d", i+1, d.Day))
		}
		n := len(d.Activities)
		if n < minPerDay || (maxPerDay > 0 && n > maxPerDay) {
			findings = append(findings, fmt.Sprintf("day %d has %d activities for %s pace", i+1, n, prefs.Pace))
		}
	}
	return findings
}
