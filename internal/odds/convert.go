package odds

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOdds is returned when a single odds value cannot be converted:
// American odds of 0 or inside the (-100, 100) dead zone, or decimal odds <= 1.
var ErrInvalidOdds = errors.New("invalid odds")

// AmericanOdds is a moneyline price in American notation (-150, +130).
// The zero value means "no price".
type AmericanOdds int

// DecimalOdds is the payout multiplier including stake (2.50 pays 2.50 per 1 staked).
type DecimalOdds float64

// Valid reports whether a is a real American price (|a| >= 100).
func (a AmericanOdds) Valid() bool {
	return a >= 100 || a <= -100
}

// Valid reports whether d is a finite price above 1.0.
func (d DecimalOdds) Valid() bool {
	f := float64(d)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 1
}

// AmericanToDecimal converts American odds to decimal odds
// Example: +150 → 2.50, -150 → 1.667
func AmericanToDecimal(a AmericanOdds) (DecimalOdds, error) {
	if !a.Valid() {
		return 0, fmt.Errorf("%w: american %d", ErrInvalidOdds, int(a))
	}

	if a > 0 {
		// Underdog: profit per 100 staked
		return DecimalOdds(1 + float64(a)/100.0), nil
	}
	// Favorite: stake needed to win 100
	return DecimalOdds(1 + 100.0/math.Abs(float64(a))), nil
}

// DecimalToAmerican converts decimal odds back to American odds, rounded to
// the nearest integer. Decimal 2.0 maps to +100. Prices beyond ±MaxInt32
// American are rejected.
func DecimalToAmerican(d DecimalOdds) (AmericanOdds, error) {
	if !d.Valid() {
		return 0, fmt.Errorf("%w: decimal %v", ErrInvalidOdds, float64(d))
	}

	f := float64(d)
	var v float64
	if f >= 2.0 {
		v = math.Round((f - 1) * 100)
	} else {
		v = math.Round(-100 / (f - 1))
	}
	if math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: decimal %v out of range", ErrInvalidOdds, f)
	}
	return AmericanOdds(v), nil
}

// DecimalToImpliedProbability returns the break-even win probability of a
// price as a percentage (0-100], vig included.
// Example: 2.00 → 50.0, 1.909 → 52.38
func DecimalToImpliedProbability(d DecimalOdds) (float64, error) {
	if !d.Valid() {
		return 0, fmt.Errorf("%w: decimal %v", ErrInvalidOdds, float64(d))
	}
	return 100.0 / float64(d), nil
}

// AmericanToImpliedProbability converts American odds straight to an implied
// probability percentage. It goes through AmericanToDecimal so both paths
// produce bit-identical results.
// Example: -110 → 52.38, +150 → 40.0
func AmericanToImpliedProbability(a AmericanOdds) (float64, error) {
	d, err := AmericanToDecimal(a)
	if err != nil {
		return 0, err
	}
	return DecimalToImpliedProbability(d)
}

// ImpliedProbabilityToDecimal converts a percentage probability (0, 100) to decimal odds.
func ImpliedProbabilityToDecimal(pct float64) (DecimalOdds, error) {
	if math.IsNaN(pct) || pct <= 0 || pct >= 100 {
		return 0, fmt.Errorf("%w: probability %v%%", ErrInvalidOdds, pct)
	}
	return DecimalOdds(100.0 / pct), nil
}

// ImpliedProbabilityToAmerican converts a percentage probability (0, 100) to American odds.
func ImpliedProbabilityToAmerican(pct float64) (AmericanOdds, error) {
	d, err := ImpliedProbabilityToDecimal(pct)
	if err != nil {
		return 0, err
	}
	return DecimalToAmerican(d)
}
