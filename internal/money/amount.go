// =============================================================================
// Shop Payment Reports - Money Module
// =============================================================================
//
// This module provides the exact decimal amount type used for every monetary
// field in the system. Amounts are backed by shopspring/decimal, so sums never
// accumulate binary floating point error.
//
// RENDERING:
//   An Amount keeps the scale implied by the literal it was parsed from:
//     "44299" -> "44299"
//     "12.50" -> "12.50"
//     zero    -> "0"
//   Adding two amounts keeps the larger scale of the two operands.
//
// =============================================================================

package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrParse is returned when a string is not a valid decimal literal.
var ErrParse = errors.New("invalid decimal amount")

// Amount is an exact decimal quantity in the single implicit currency.
// The zero value is a valid zero amount.
type Amount struct {
	d decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{d: decimal.Zero}
}

// Parse converts a decimal literal such as "44299" or "12.50" to an Amount.
//
// RETURNS:
//   - The parsed Amount.
//   - An error wrapping ErrParse if the value is empty, padded with
//     whitespace, or not a number.
func Parse(s string) (Amount, error) {
	if s == "" || strings.TrimSpace(s) != s {
		return Amount{}, fmt.Errorf("%w: %q", ErrParse, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrParse, s)
	}

	return Amount{d: d}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Cmp compares a and b numerically and returns -1, 0 or +1.
// Scale is ignored: "12.5" and "12.50" compare equal.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether a and b are numerically equal.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// IsZero reports whether the amount is numerically zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders the amount in its canonical form.
func (a Amount) String() string {
	if exp := a.d.Exponent(); exp < 0 {
		return a.d.StringFixed(-exp)
	}
	return a.d.String()
}
