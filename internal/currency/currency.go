// Package currency provides price-reference rates and converts the free-form
// cost strings of a plan into a traveller's currency.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Predefined errors for currency operations.
var (
	// ErrUnknownCurrency is returned for codes that are not ISO 4217.
	ErrUnknownCurrency = errors.New("unknown currency code")

	// ErrProviderUnavailable is returned when rates cannot be fetched.
	ErrProviderUnavailable = errors.New("currency provider unavailable")
)

// Provider supplies conversion rates from a base currency.
type Provider interface {
	// Rates returns the amount of each target currency worth one unit of base.
	Rates(ctx context.Context, base string) (map[string]float64, error)

	// Name returns the provider name for logging.
	Name() string
}

// Supported lists the currencies offered for display conversion.
var Supported = []string{"USD", "EUR", "GBP", "JPY", "INR"}

var symbols = map[string]string{
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
	"JPY": "¥",
	"INR": "₹",
}

// Symbol returns the display prefix for a currency. Codes without a known
// symbol render as the code followed by a space.
func Symbol(code string) string {
	code = strings.ToUpper(code)
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}

// NormalizeCode validates an ISO 4217 code and returns it upper-cased.
func NormalizeCode(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return unit.String(), nil
}
