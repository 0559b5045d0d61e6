package currency

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// NotAvailable is shown for missing prices.
const NotAvailable = "N/A"

// ConvertPrice rewrites a free-form price into target currency using rates
// quoted against base. Prices without numbers ("Free"), conversions into the
// base currency and targets without a rate are returned unchanged. A range
// keeps its first two amounts.
func ConvertPrice(price, target, base string, rates map[string]float64) string {
	if price == "" {
		return NotAvailable
	}
	target = strings.ToUpper(target)
	if rates == nil || target == strings.ToUpper(base) {
		return price
	}
	rate, ok := rates[target]
	if !ok || rate == 0 {
		return price
	}

	matches := numberPattern.FindAllString(strings.ReplaceAll(price, ",", ""), -1)
	if len(matches) == 0 {
		return price
	}

	converted := make([]string, 0, 2)
	for _, m := range matches {
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		converted = append(converted, strconv.FormatFloat(n*rate, 'f', 2, 64))
		if len(converted) == 2 {
			break
		}
	}
	if len(converted) == 0 {
		return price
	}

	symbol := Symbol(target)
	if len(converted) > 1 {
		return symbol + converted[0] + " - " + symbol + converted[1]
	}
	return symbol + converted[0]
}
