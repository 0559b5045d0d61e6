package schema

import (
	"github.com/tripweaver/tripweaver/internal/trip"
)

// DestinationValidation is the contract for destination checks.
var DestinationValidation = Contract{
	Name: "destination_validation",
	Root: object("", "",
		Field{Name: "isValid", Type: TypeBoolean, Description: "True if the destination is a real place.", Required: true},
		str("correctedName", "The corrected or properly formatted name of the destination. Empty if isValid is false."),
	),
}

// ActivityField is the shape of a single activity.
var ActivityField = object("", "",
	str("time", "e.g., Morning, Afternoon, Evening"),
	str("description", "A detailed description of the activity."),
	str("transport", "Suggested mode of transport."),
	str("location", "Name of the location or area."),
	str("estimatedCost", "Estimated cost as a range in local currency, e.g. '€20 - €30', or 'Free'."),
)

// Activity is the contract for swap responses.
var Activity = Contract{Name: "activity", Root: ActivityField}

// Plan is the contract for full itinerary generation.
var Plan = Contract{
	Name: "itinerary_plan",
	Root: object("", "",
		arrayOf("itinerary", "Day-by-day plan.", object("", "",
			integer("day", "Day number, starting at 1."),
			str("title", "A catchy title for the day's plan."),
			arrayOf("activities", "", withName(ActivityField, "")),
		)),
		arrayOf("weatherForecast", "One entry per day of the trip.", object("", "",
			integer("day", "Day number, starting at 1."),
			str("forecast", "A brief summary, e.g. 'Sunny with light breeze'."),
			Field{Name: "icon", Type: TypeString, Required: true, Enum: iconNames()},
			number("tempHigh", "High temperature in Celsius."),
			number("tempLow", "Low temperature in Celsius."),
		)),
		str("bestTimeToVisit", "Advice on the best time of year to visit."),
		arrayOf("upcomingEvents", "Events or festivals during the trip.", object("", "",
			str("name", ""),
			str("description", ""),
		)),
		str("youtubeSearchUrl", "A YouTube search URL for travel guides about the destination."),
		object("safetyTips", "",
			stringList("culturalEtiquette", ""),
			stringList("scamsToAvoid", ""),
			stringList("generalAdvice", ""),
		),
		arrayOf("packingList", "", object("", "",
			str("item", ""),
			str("description", ""),
			str("googleSearchUrl", "A Google search URL for the item."),
		)),
		arrayOf("hotelSuggestions", "One suggestion per day.", object("", "",
			integer("day", ""),
			str("name", ""),
			str("priceRange", ""),
			str("googleSearchUrl", "A Google search URL for the hotel."),
		)),
		str("localCurrencyCode", "ISO 4217 currency code, e.g. EUR."),
		str("countryCode", "ISO 3166-1 alpha-2 country code, e.g. FR."),
	),
}

func withName(f Field, name string) Field {
	f.Name = name
	return f
}

func iconNames() []string {
	names := make([]string, len(trip.WeatherIcons))
	for i, icon := range trip.WeatherIcons {
		names[i] = string(icon)
	}
	return names
}
