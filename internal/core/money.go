// Package core provides money arithmetic helpers.
//
// Stored amounts are float64 for document compatibility; arithmetic that
// must not drift (conversion, allocation shares, balance changes) goes
// through decimal and lands on whole cents.
package core

import "github.com/shopspring/decimal"

// RoundCents rounds v half away from zero to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// AddCents returns a+b rounded to cents, so repeated balance changes never
// accumulate binary error.
func AddCents(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Covers reports whether balance can pay amount when both are taken to
// the cent.
func Covers(balance, amount float64) bool {
	return decimal.NewFromFloat(balance).Round(2).GreaterThanOrEqual(decimal.NewFromFloat(amount).Round(2))
}

// TruncateCents drops everything past the second decimal place, so a sum
// of truncated shares never exceeds the whole.
func TruncateCents(v float64) float64 {
	return decimal.NewFromFloat(v).Truncate(2).InexactFloat64()
}

// Share computes whole * pct/100 * factor truncated to cents.
func Share(whole, pct, factor float64) float64 {
	d := decimal.NewFromFloat(whole).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromFloat(factor))
	return d.Truncate(2).InexactFloat64()
}

// ScaleFactor returns 100/total when the percentages exceed 100, else 1.
func ScaleFactor(total float64) float64 {
	if total <= 100 {
		return 1
	}
	return decimal.NewFromInt(100).Div(decimal.NewFromFloat(total)).InexactFloat64()
}
