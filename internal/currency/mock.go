package currency

import (
	"context"
	"maps"
	"strings"
)

// MockProviderName identifies the built-in rate table.
const MockProviderName = "mock"

var mockRates = map[string]map[string]float64{
	"EUR": {"USD": 1.08, "GBP": 0.85, "JPY": 169.50, "INR": 90.15, "EUR": 1},
	"JPY": {"USD": 0.0064, "GBP": 0.0051, "EUR": 0.0059, "INR": 0.53, "JPY": 1},
	"USD": {"EUR": 0.93, "GBP": 0.79, "JPY": 156.45, "INR": 83.60, "USD": 1},
	"GBP": {"USD": 1.27, "EUR": 1.18, "JPY": 198.85, "INR": 105.75, "GBP": 1},
	"INR": {"USD": 0.012, "EUR": 0.011, "GBP": 0.0095, "JPY": 1.88, "INR": 1},
}

// MockProvider serves a fixed rate table. Unknown bases get the USD table.
type MockProvider struct{}

// Name returns the provider name.
func (MockProvider) Name() string {
	return MockProviderName
}

// Rates returns a copy of the table row for base.
func (MockProvider) Rates(_ context.Context, base string) (map[string]float64, error) {
	row, ok := mockRates[strings.ToUpper(base)]
	if !ok {
		row = mockRates["USD"]
	}
	return maps.Clone(row), nil
}
