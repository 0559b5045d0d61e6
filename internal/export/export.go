// Package export renders a plan as an email body, a PDF document and an
// iCalendar feed.
package export

import (
	"strings"

	"github.com/tripweaver/tripweaver/internal/currency"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// dayLabelLayout renders dates such as "Monday, June 1".
const dayLabelLayout = "Monday, January 2"

// Document is the input to every exporter.
type Document struct {
	Plan        *trip.Plan
	Preferences trip.Preferences

	// Price rewrites cost strings for display. Nil shows them as generated.
	Price func(string) string
}

func (d Document) price(s string) string {
	if d.Price != nil {
		return d.Price(s)
	}
	if s == "" {
		return currency.NotAvailable
	}
	return s
}

// DayLabel returns the calendar label for the day at dayIdx, or an empty
// string when the start date is not parseable.
func (d Document) DayLabel(dayIdx int) string {
	date, ok := trip.DayDate(d.Preferences, dayIdx)
	if !ok {
		return ""
	}
	return date.Format(dayLabelLayout)
}

// Filename returns "itinerary-<destination>.<ext>" with the destination
// lower-cased and whitespace replaced by hyphens.
func Filename(destination, ext string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(destination)), "-")
	if slug == "" {
		slug = "trip"
	}
	return "itinerary-" + slug + "." + ext
}
