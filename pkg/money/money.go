// Package money centralizes monetary rounding and formatting. Every amount that
// leaves the process goes through Format, so totals are never computed or
// compared as binary floats.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits in every currency we charge in.
const Places = 2

// Round2 rounds half-to-even to two fractional digits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Places)
}

// Format renders the amount with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixedBank(Places)
}

// Parse reads a decimal amount from user or provider input.
func Parse(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(raw string) decimal.Decimal {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum adds the amounts and rounds the result once.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round2(total)
}

// LineTotal returns round2(unit) × quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(unit).Mul(decimal.NewFromInt(int64(quantity)))
}

// Display renders an amount the way the storefront shows prices.
func Display(d decimal.Decimal, currency string) string {
	return Format(d) + " " + currency
}
