// Package money converts between the decimal amounts spoken at the API
// boundary and the int64 minor units used everywhere inside the ledger.
// All arithmetic happens on minor units; decimals exist only for display
// and parsing.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// minorDigits is the number of decimal places in a minor unit (cents, paisa).
const minorDigits = 2

// ErrInvalidAmount is returned for unparseable, over-precise, or
// non-positive amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ToMinor parses a decimal string like "12.34" into minor units (1234).
// Amounts must be positive and carry at most two decimal places; there is
// no silent rounding.
func ToMinor(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -minorDigits {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, minorDigits)
	}
	minor := d.Shift(minorDigits)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, minorDigits)
	}
	if minor.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidAmount, s)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return minor.BigInt().Int64(), nil
}

// FromMinor renders minor units as a decimal string: 1234 -> "12.34".
// Works for negative values too, for balance display.
func FromMinor(minor int64) string {
	return decimal.New(minor, -minorDigits).StringFixed(minorDigits)
}
