package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseGermanAmount parses a locale-formatted signed decimal such as
// "1.234,56" or "-9,99": dots are thousands separators, the comma is the
// decimal separator.
func ParseGermanAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrAmountFormat)
	}
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountFormat, s)
	}
	return d, nil
}

// FormatGermanAmount renders an amount back into the locale form with two
// decimals, e.g. 1234.5 -> "1.234,50".
func FormatGermanAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := b.String() + "," + fracPart
	if neg {
		return "-" + out
	}
	return out
}
