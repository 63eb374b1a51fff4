package form

import (
	"regexp"
	"strconv"

	"github.com/go-playground/locales/currency"
	es_CO "github.com/go-playground/locales/es_CO"
)

var (
	nonDigitRegex = regexp.MustCompile(`\D`)
	digitsRegex   = regexp.MustCompile(`^[0-9]*$`)

	// amounts are formatted for the es-CO locale in COP, without decimals
	currencyLocale = es_CO.New()
)

// IsNumeric reports whether s contains only digits. The empty string is numeric.
func IsNumeric(s string) bool {
	return digitsRegex.MatchString(s)
}

// StripCurrency removes every non-digit character, recovering the raw
// digit string from a display-formatted amount.
func StripCurrency(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

// FormatCurrency strips s to digits and renders it as a locale-formatted
// currency amount (e.g. "50000" -> "$ 50.000"). The stored form value is
// display-formatted; StripCurrency reverses it on submission.
func FormatCurrency(s string) string {
	digits := StripCurrency(s)
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		n = 0
	}
	return currencyLocale.FmtCurrency(n, 0, currency.COP)
}
