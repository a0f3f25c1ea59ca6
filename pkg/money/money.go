// Package money converts between decimal currency amounts and integer minor units.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ParseCents converts "49.99" into 4999. More than two fractional digits
// are rejected rather than rounded.
func ParseCents(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return FromDecimal(d)
}

// FromDecimal converts a major-unit decimal into minor units.
func FromDecimal(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative %s", ErrInvalidAmount, d.String())
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has sub-cent precision", ErrInvalidAmount, d.String())
	}
	return cents.IntPart(), nil
}

// ToDecimal converts minor units back into a major-unit decimal.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents for display, e.g. Format(4999, "usd") == "USD 49.99".
func Format(cents int64, currency string) string {
	return strings.ToUpper(currency) + " " + ToDecimal(cents).StringFixed(2)
}
