// Package prompt builds the instructions sent to the model for each planner operation.
// Every builder is a pure function of its inputs.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tripweaver/tripweaver/internal/schema"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// Kind identifies the operation a prompt is built for.
type Kind string

const (
	KindValidateDestination Kind = "validate-destination"
	KindGeneratePlan        Kind = "generate-plan"
	KindSwapActivity        Kind = "swap-activity"
)

// Prompt is an instruction plus the contract the response must satisfy.
type Prompt struct {
	Kind     Kind
	Text     string
	Contract schema.Contract
}

// SwapContext is everything the model needs to replace one activity.
type SwapContext struct {
	Preferences trip.Preferences
	Day         trip.Day
	Replace     trip.Activity
}

// ValidateDestination builds the destination check prompt.
func ValidateDestination(destination string) Prompt {
	var b strings.Builder
	b.WriteString("Please validate if the following is a real and valid travel destination.\n")
	fmt.Fprintf(&b, "Destination: %q\n", destination)
	b.WriteString("Consider common typos or variations (for example \"Pari\" should be corrected to \"Paris\"). ")
	b.WriteString("If it's a fictional place or doesn't exist, it's invalid and correctedName must be an empty string.\n")
	writeContract(&b, schema.DestinationValidation, "the JSON object")

	return Prompt{Kind: KindValidateDestination, Text: b.String(), Contract: schema.DestinationValidation}
}

// GeneratePlan builds the full itinerary prompt.
func GeneratePlan(prefs trip.Preferences) Prompt {
	var b strings.Builder
	b.WriteString("Create a comprehensive travel plan based on the following preferences. You must provide all requested sections.\n\n")

	b.WriteString("User Preferences:\n")
	fmt.Fprintf(&b, "- Destination: %s\n", prefs.Destination)
	fmt.Fprintf(&b, "- Travel Date: Starting %s\n", prefs.StartDate)
	fmt.Fprintf(&b, "- Duration: %d days\n", prefs.Duration)
	fmt.Fprintf(&b, "- Companion(s): %s\n", prefs.Companion)
	fmt.Fprintf(&b, "- Interests: %s\n", prefs.InterestList())
	fmt.Fprintf(&b, "- Budget: %s\n", prefs.Budget)
	fmt.Fprintf(&b, "- Travel Pace: %s. This means:\n", prefs.Pace)
	fmt.Fprintf(&b, "    - '%s': Fewer (%s) well-spaced activities per day.\n", trip.PaceRelaxed, trip.PaceRelaxed.DensityLabel())
	fmt.Fprintf(&b, "    - '%s': A moderate amount (%s) of activities per day.\n", trip.PaceBalanced, trip.PaceBalanced.DensityLabel())
	fmt.Fprintf(&b, "    - '%s': A full day with many (%s) activities.\n\n", trip.PaceActionPacked, trip.PaceActionPacked.DensityLabel())

	b.WriteString("Required Output Sections:\n")
	sections := []string{
		"Itinerary: A detailed, day-by-day plan reflecting the chosen travel pace. For each activity include a time, a description, " +
			"suggested transportation, a specific, searchable location name, and an estimated cost. The cost MUST be an approximate " +
			"range in the local currency of the destination (e.g. '€20 - €30', 'Approx. ¥5000', or 'Free') tailored to the budget.",
		fmt.Sprintf("Weather Forecast: A daily forecast for the trip duration (%d days) with description, icon keyword (%s), "+
			"and high/low temperatures in Celsius.", prefs.Duration, iconList()),
		fmt.Sprintf("Best Time to Visit: A short paragraph about the best time to visit %s.", prefs.Destination),
		fmt.Sprintf("Upcoming Events: Significant events in %s around the travel dates. If there are none, state that clearly.", prefs.Destination),
		fmt.Sprintf("YouTube Search Link: A single, valid YouTube search URL for travel vlogs and guides for %s.", prefs.Destination),
		fmt.Sprintf("Safety Tips: Essential safety and cultural advice for a traveler in %s: cultural etiquette points, "+
			"common scams to be aware of, and general safety advice.", prefs.Destination),
		"Personalized Packing List: Items based on weather, activities and trip duration. For each item provide its name, " +
			"why it's needed, and a valid Google search URL to find the product.",
		fmt.Sprintf("Hotel Suggestions: One hotel per day of the trip, conveniently located for that day's activities and aligned "+
			"with the budget (%s). Include the day number, name, approximate price range per night in local currency, "+
			"and a valid Google search URL.", prefs.Budget),
		"Local Currency Code: The three-letter ISO 4217 currency code for the destination (e.g. \"EUR\" for Paris, \"JPY\" for Tokyo).",
		"Country Code: The two-letter ISO 3166-1 alpha-2 country code for the destination (e.g. \"FR\" for France, \"JP\" for Japan).",
	}
	for i, s := range sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\n")
	writeContract(&b, schema.Plan, "the JSON object")

	return Prompt{Kind: KindGeneratePlan, Text: b.String(), Contract: schema.Plan}
}

// SwapActivity builds the prompt for replacing one activity of a day.
func SwapActivity(sc SwapContext) Prompt {
	existing := make([]string, len(sc.Day.Activities))
	for i, a := range sc.Day.Activities {
		existing[i] = a.Description
	}

	var b strings.Builder
	b.WriteString("Based on the following travel preferences, suggest a new and different activity to replace an existing one.\n\n")

	b.WriteString("User Preferences:\n")
	fmt.Fprintf(&b, "- Destination: %s\n", sc.Preferences.Destination)
	fmt.Fprintf(&b, "- Interests: %s\n", sc.Preferences.InterestList())
	fmt.Fprintf(&b, "- Budget: %s\n", sc.Preferences.Budget)
	fmt.Fprintf(&b, "- Companion(s): %s\n\n", sc.Preferences.Companion)

	b.WriteString("Day's Context:\n")
	fmt.Fprintf(&b, "- Day Theme: %s\n", sc.Day.Title)
	fmt.Fprintf(&b, "- Existing Activities for the day: %s\n", strings.Join(existing, ", "))
	fmt.Fprintf(&b, "- Activity to Replace: %q at %s\n\n", sc.Replace.Description, sc.Replace.Time)

	b.WriteString("Task:\n")
	b.WriteString("Generate ONE new activity that fits the interests and the day's theme. ")
	b.WriteString("It must be different from all other activities listed for the day. ")
	b.WriteString("The new activity's time should be similar to the one it's replacing.\n\n")
	writeContract(&b, schema.Activity, "a single JSON object for the new activity")

	return Prompt{Kind: KindSwapActivity, Text: b.String(), Contract: schema.Activity}
}

// Image builds the image-generation instruction for an activity.
func Image(description, destination string) string {
	return fmt.Sprintf(
		"A vibrant, photorealistic image representing the following travel activity: %q in %s. "+
			"Focus on the atmosphere and key elements of the activity.",
		description, destination,
	)
}

func writeContract(b *strings.Builder, c schema.Contract, what string) {
	fmt.Fprintf(b, "Respond ONLY with %s matching this JSON Schema:\n", what)
	b.WriteString(c.String())
	b.WriteString("\n")
}

func iconList() string {
	names := make([]string, len(trip.WeatherIcons))
	for i, icon := range trip.WeatherIcons {
		names[i] = string(icon)
	}
	return strings.Join(names, ", ")
}
