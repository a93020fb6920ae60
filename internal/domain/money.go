package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ─── Money ──────────────────────────────────────────────────────────────────
// Amounts travel as decimal.Decimal at the API edge and are stored as
// integer cents. Anything finer than two fraction digits is rejected
// rather than silently rounded.

// CentsFromDecimal converts an amount to integer cents.
// Returns ErrValidation when the amount has more than two fraction digits.
func CentsFromDecimal(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s has sub-cent precision", ErrValidation, d.String())
	}
	return shifted.IntPart(), nil
}

// DecimalFromCents converts integer cents back to a two-place decimal.
func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ParseAmount parses a client-supplied amount string into cents,
// enforcing cent precision.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a number", ErrValidation, s)
	}
	return CentsFromDecimal(d)
}
