package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/tripweaver/tripweaver/internal/trip"
)

// slotHours maps loose time-of-day labels to a start hour.
var slotHours = map[string]int{
	"early morning":  7,
	"morning":        9,
	"late morning":   11,
	"lunch":          12,
	"midday":         12,
	"noon":           12,
	"afternoon":      14,
	"late afternoon": 16,
	"evening":        18,
	"dinner":         19,
	"night":          21,
	"late night":     22,
}

var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)

const activityDuration = 2 * time.Hour

// startOf resolves a time label on date. It reports false when the label
// carries neither a clock time nor a known slot.
func startOf(date time.Time, label string) (time.Time, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if m := clockPattern.FindStringSubmatch(label); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		switch m[3] {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour < 24 && minute < 60 {
			return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC), true
		}
	}
	if hour, ok := slotHours[label]; ok {
		return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ICS renders one calendar event per activity. Activities whose time label
// cannot be placed become all-day events.
func ICS(d Document) (string, error) {
	if d.Plan == nil {
		return "", fmt.Errorf("rendering calendar: no plan")
	}
	if _, err := d.Preferences.Start(); err != nil {
		return "", fmt.Errorf("rendering calendar: %w", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Tripweaver//Itinerary//EN")
	cal.SetName("Trip to " + d.Preferences.Destination)

	stamp := time.Now().UTC()
	for i, day := range d.Plan.Itinerary {
		date, _ := trip.DayDate(d.Preferences, i)
		for j, a := range day.Activities {
			id := a.ID
			if id == "" {
				id = fmt.Sprintf("day%d-activity%d", day.Day, j+1)
			}
			event := cal.AddEvent(id + "@tripweaver")
			event.SetDtStampTime(stamp)
			event.SetSummary(fmt.Sprintf("%s: %s", a.Time, a.Description))
			event.SetLocation(a.Location)
			event.SetDescription(fmt.Sprintf("Day %d: %s\nTransport: %s\nEstimated Cost: %s",
				day.Day, day.Title, a.Transport, d.price(a.EstimatedCost)))

			if start, ok := startOf(date, a.Time); ok {
				event.SetStartAt(start)
				event.SetEndAt(start.Add(activityDuration))
				continue
			}
			event.SetAllDayStartAt(date)
			event.SetAllDayEndAt(date.AddDate(0, 0, 1))
		}
	}

	return cal.Serialize(), nil
}
