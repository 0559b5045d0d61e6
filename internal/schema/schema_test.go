package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/schema"
)

func TestPlanContract_RequiresEveryTopLevelField(t *testing.T) {
	doc := schema.Plan.JSONSchema()

	required, ok := doc["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{
		"itinerary", "weatherForecast", "bestTimeToVisit", "upcomingEvents", "youtubeSearchUrl",
		"safetyTips", "packingList", "hotelSuggestions", "localCurrencyCode", "countryCode",
	}, required)
}

func TestActivityContract_AllStringsRequired(t *testing.T) {
	for _, f := range schema.Activity.Root.Properties {
		assert.Equal(t, schema.TypeString, f.Type, f.Name)
		assert.True(t, f.Required, f.Name)
	}
	assert.Len(t, schema.Activity.Root.Properties, 5)
}

func TestContract_StringIsValidJSON(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(schema.DestinationValidation.String()), &decoded))

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "isValid")
	assert.Contains(t, props, "correctedName")
}

func TestPlanContract_WeatherIconEnum(t *testing.T) {
	weather := schema.Plan.Root.Properties[1]
	require.Equal(t, "weatherForecast", weather.Name)
	require.NotNil(t, weather.Items)

	var icon schema.Field
	for _, f := range weather.Items.Properties {
		if f.Name == "icon" {
			icon = f
		}
	}
	assert.Equal(t, []string{"Sunny", "PartlyCloudy", "Cloudy", "Rainy", "Thunderstorm"}, icon.Enum)
}
