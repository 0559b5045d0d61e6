package export

import (
	"fmt"
	"net/url"
	"strings"
)

const divider = "----------------------------------------"

// EmailBody renders the plain-text itinerary for sharing.
func EmailBody(d Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello!\n\nHere is the travel itinerary for the trip to %s.\n\n", d.Preferences.Destination)
	b.WriteString(divider + "\n")

	for i, day := range d.Plan.Itinerary {
		fmt.Fprintf(&b, "\nDay %d: %s (%s)\n", day.Day, day.Title, d.DayLabel(i))
		b.WriteString("--------------------\n")
		for _, a := range day.Activities {
			fmt.Fprintf(&b, "  • %s: %s\n", a.Time, a.Description)
			fmt.Fprintf(&b, "    Location: %s\n", a.Location)
			fmt.Fprintf(&b, "    Transport: %s\n", a.Transport)
			fmt.Fprintf(&b, "    Estimated Cost: %s\n\n", d.price(a.EstimatedCost))
		}
	}

	b.WriteString("\nPowered by Tripweaver.")
	return b.String()
}

// Subject is the email subject line for the itinerary.
func Subject(d Document) string {
	return "Travel itinerary: " + d.Preferences.Destination
}

// MailtoURL builds a mailto link carrying the email body. An empty recipient
// leaves the address for the mail client to fill in.
func MailtoURL(d Document, to string) string {
	q := url.Values{}
	q.Set("subject", Subject(d))
	q.Set("body", EmailBody(d))
	// mailto expects %20 rather than + for spaces.
	return "mailto:" + url.PathEscape(to) + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}
