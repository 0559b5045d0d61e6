package reconcile_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/reconcile"
	"github.com/tripweaver/tripweaver/internal/trip"
)

const planJSON = `{
  "itinerary": [
    {"day": 1, "title": "Arrival", "activities": [
      {"time": "Morning", "description": "Louvre", "transport": "Metro", "location": "Louvre Museum", "estimatedCost": "€17"},
      {"time": "Afternoon", "description": "Tuileries walk", "transport": "Walk", "location": "Jardin des Tuileries", "estimatedCost": "Free"},
      {"time": "Evening", "description": "Seine cruise", "transport": "Boat", "location": "Port de la Bourdonnais", "estimatedCost": "€15 - €20"}
    ]}
  ],
  "weatherForecast": [{"day": 1, "forecast": "Sunny", "icon": "Sunny", "tempHigh": 24, "tempLow": 14}],
  "bestTimeToVisit": "Spring",
  "upcomingEvents": [],
  "youtubeSearchUrl": "https://www.youtube.com/results?search_query=paris+travel",
  "safetyTips": {"culturalEtiquette": ["Say bonjour"], "scamsToAvoid": [], "generalAdvice": []},
  "packingList": [{"item": "Umbrella", "description": "Showers", "googleSearchUrl": "https://www.google.com/search?q=umbrella"}],
  "hotelSuggestions": [{"day": 1, "name": "Hotel Lutetia", "priceRange": "€400 - €600", "googleSearchUrl": "https://www.google.com/search?q=lutetia"}],
  "localCurrencyCode": "EUR",
  "countryCode": "FR"
}`

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go: {\"a\":{\"b\":\"}\"}} hope it helps", `{"a":{"b":"}"}}`},
		{"escaped quote", `{"a":"say \"hi\" {"}`, `{"a":"say \"hi\" {"}`},
		{"braces in leading prose", `Sure {here} is the plan: {"a":1}`, `{"a":1}`},
		{"placeholder before fenced object", "Use {destination}:\n```json\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`},
		{"nothing parses returns first candidate", `{here} and {there}`, `{here}`},
		{"unbalanced", `{"a":1`, `{"a":1`},
		{"no object", "  sorry  ", "sorry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconcile.Repair(tt.raw))
		})
	}
}

func TestPlan_Valid(t *testing.T) {
	plan, err := reconcile.Plan("```json\n" + planJSON + "\n```")
	require.NoError(t, err)

	require.Len(t, plan.Itinerary, 1)
	assert.Len(t, plan.Itinerary[0].Activities, 3)
	assert.Equal(t, "EUR", plan.LocalCurrencyCode)
	assert.Equal(t, trip.IconSunny, plan.WeatherForecast[0].Icon)
	assert.NotEmpty(t, plan.Itinerary[0].ID)
	assert.NotEmpty(t, plan.Itinerary[0].Activities[2].ID)
}

func TestPlan_MalformedSurfaces(t *testing.T) {
	_, err := reconcile.Plan("the model is sleeping")
	require.Error(t, err)
	assert.True(t, errors.Is(err, trip.ErrMalformedResponse))
}

func TestPlan_MissingTopLevelField(t *testing.T) {
	_, err := reconcile.Plan(`{"itinerary": []}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, trip.ErrSchemaViolation))
	assert.Contains(t, err.Error(), "$.weatherForecast")
}

func TestPlan_WrongNestedType(t *testing.T) {
	raw := `{"itinerary": [{"day": "one", "title": "x", "activities": []}], "weatherForecast": [], "bestTimeToVisit": "",
"upcomingEvents": [], "youtubeSearchUrl": "", "safetyTips": {"culturalEtiquette": [], "scamsToAvoid": [], "generalAdvice": []},
"packingList": [], "hotelSuggestions": [], "localCurrencyCode": "EUR", "countryCode": "FR"}`

	_, err := reconcile.Plan(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, trip.ErrSchemaViolation))
	assert.Contains(t, err.Error(), "$.itinerary[0].day")
}

func TestPlan_UnknownIconRejected(t *testing.T) {
	raw := `{"itinerary": [], "weatherForecast": [{"day": 1, "forecast": "", "icon": "Snowy", "tempHigh": 1, "tempLow": 0}],
"bestTimeToVisit": "", "upcomingEvents": [], "youtubeSearchUrl": "",
"safetyTips": {"culturalEtiquette": [], "scamsToAvoid": [], "generalAdvice": []},
"packingList": [], "hotelSuggestions": [], "localCurrencyCode": "EUR", "countryCode": "FR"}`

	_, err := reconcile.Plan(raw)
	assert.True(t, errors.Is(err, trip.ErrSchemaViolation))
}

func TestDestination_Corrected(t *testing.T) {
	res, err := reconcile.Destination(`{"isValid": true, "correctedName": "Paris"}`, "Pari")
	require.NoError(t, err)
	assert.Equal(t, trip.DestinationResult{IsValid: true, CorrectedName: "Paris"}, res)
}

func TestDestination_Invalid(t *testing.T) {
	res, err := reconcile.Destination(`{"isValid": false, "correctedName": "Atlantis"}`, "Atlantis")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Empty(t, res.CorrectedName)
}

func TestDestination_FailuresDefaultToValid(t *testing.T) {
	for _, raw := range []string{"not json", `{"isValid": "yes"}`, `{"correctedName": "Paris"}`, ""} {
		res, err := reconcile.Destination(raw, "Pari")
		assert.Error(t, err, raw)
		assert.Equal(t, trip.DestinationResult{IsValid: true, CorrectedName: "Pari"}, res, raw)
	}
}

func TestDestination_EmptyCorrectionUsesInput(t *testing.T) {
	res, err := reconcile.Destination(`{"isValid": true, "correctedName": ""}`, "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", res.CorrectedName)
}

func TestActivity(t *testing.T) {
	a, err := reconcile.Activity(`{"time": "Evening", "description": "Jazz club", "transport": "Walk", "location": "Le Caveau", "estimatedCost": "€25"}`)
	require.NoError(t, err)
	assert.Equal(t, "Jazz club", a.Description)
	assert.NotEmpty(t, a.ID)
	assert.Empty(t, a.ImageURL)
}

func TestActivity_ParseFailureWrappedOnce(t *testing.T) {
	_, err := reconcile.Activity("nope")
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), trip.ErrMalformedResponse.Error()), err.Error())

	_, err = reconcile.Activity(`{"time": "Evening"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, trip.ErrMalformedResponse)
	assert.ErrorIs(t, err, trip.ErrSchemaViolation)
}

func TestActivity_FailuresAreMalformed(t *testing.T) {
	for _, raw := range []string{"nope", `{"time": "Evening"}`} {
		_, err := reconcile.Activity(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, trip.ErrMalformedResponse), raw)
	}
}
