package normalizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// cleanNumber drops currency symbols, codes and spaces around a number and
// moves a trailing minus, as in "12,50-", to the front. A cell with anything
// else between its digits is returned trimmed, for the parser to reject.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	sign := ""
	signed, digits, tail := false, false, false
	for _, r := range s {
		numeric := unicode.IsDigit(r) || r == '.' || r == ','
		switch {
		case numeric && tail:
			return s
		case numeric:
			digits = digits || unicode.IsDigit(r)
			b.WriteRune(r)
		case r == '-' || r == '+':
			if signed {
				return s
			}
			signed = true
			if r == '-' {
				sign = "-"
			}
			tail = tail || digits
		case digits && !unicode.IsSpace(r):
			tail = true
		}
	}
	return sign + b.String()
}

// parseNumber reads a localized number. An empty cell is zero.
func parseNumber(s string, decimalComma bool) (decimal.Decimal, error) {
	c := cleanNumber(s)
	if c == "" || c == "-" || c == "+" {
		return decimal.Zero, nil
	}
	if decimalComma {
		c = strings.ReplaceAll(c, ".", "")
		c = strings.ReplaceAll(c, ",", ".")
	} else {
		c = strings.ReplaceAll(c, ",", "")
	}
	d, err := decimal.NewFromString(c)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d, nil
}
