// Package valueobject holds the monetary policy every custody amount follows:
// two decimal places, half-up rounding and a one cent equality tolerance.
package valueobject

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places every stored amount carries
const MoneyPlaces int32 = 2

// Epsilon is the comparison tolerance for monetary amounts.
// Two amounts whose difference is strictly below one cent are equal.
var Epsilon = decimal.New(1, -MoneyPlaces)

// Round2 rounds x half-up (away from zero) to two decimals
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(MoneyPlaces)
}

// ClampNonNegative returns max(0, x)
func ClampNonNegative(x decimal.Decimal) decimal.Decimal {
	if x.IsNegative() {
		return decimal.Zero
	}
	return x
}

// IsZero reports whether |x| is below the one cent epsilon
func IsZero(x decimal.Decimal) bool {
	return x.Abs().LessThan(Epsilon)
}

// WithinEpsilon reports whether a and b are equal under the one cent policy
func WithinEpsilon(a, b decimal.Decimal) bool {
	return IsZero(a.Sub(b))
}

// Exceeds reports whether a is greater than b by at least one cent
func Exceeds(a, b decimal.Decimal) bool {
	return a.GreaterThan(b) && !WithinEpsilon(a, b)
}

// Sum adds xs and rounds the total, so a fold over stored amounts never
// carries more than two places.
func Sum(xs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(x)
	}
	return Round2(total)
}

// Format renders x with exactly two decimals, the wire and audit form of an amount.
func Format(x decimal.Decimal) string {
	return x.StringFixed(MoneyPlaces)
}
