package monetbil

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Cameroon numbering. Monetbil expects MSISDNs in international form
// without the plus sign.
const (
	CountryCallingCode = "237"
	trunkPrefix        = "0"
)

// NormalizePhone strips non-digit characters and forces the 237 country
// prefix. A leading trunk zero is replaced by the country code. Malformed
// input degrades to best-effort digit concatenation, there is no error case.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return digits
	}

	if strings.HasPrefix(digits, trunkPrefix) {
		digits = CountryCallingCode + digits[len(trunkPrefix):]
	}
	if !strings.HasPrefix(digits, CountryCallingCode) {
		digits = CountryCallingCode + digits
	}
	return digits
}

// NormalizeAmount renders an amount for the widget query string. XAF carries
// no minor unit on the wire, so the value is rounded half-up to an integer.
func NormalizeAmount(amount float64) string {
	return decimal.NewFromFloat(amount).Round(0).String()
}
