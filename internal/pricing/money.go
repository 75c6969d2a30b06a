// Package pricing holds the cart pricing and discount-application engine.
// Every function here is pure: it takes value snapshots and returns new ones.
package pricing

import "github.com/shopspring/decimal"

const (
	// AmountPlaces is the precision of rates, discount amounts and totals.
	AmountPlaces = 2
	// RatioPlaces is the precision of proportional ratios.
	RatioPlaces = 4
)

var hundred = decimal.NewFromInt(100)

// Rate converts a percentage into a fraction rounded half-up to two places.
func Rate(percent decimal.Decimal) decimal.Decimal {
	return percent.DivRound(hundred, AmountPlaces)
}

// Ratio returns part/whole rounded half-up to four places. A zero whole
// yields zero.
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.DivRound(whole, RatioPlaces)
}

// Amount rounds a monetary value half-up to two places.
func Amount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// Times multiplies a unit price by a unit count.
func Times(unit decimal.Decimal, n int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(n)))
}

// clamp bounds d to [0, max].
func clamp(d, max decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(max) {
		return max
	}
	return d
}
