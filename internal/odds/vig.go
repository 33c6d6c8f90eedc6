package odds

import "math"

// Overround returns the bookmaker margin of a two-way price pair in percent:
// impliedHome + impliedAway - 100. A negative result means the pair is an arbitrage.
func Overround(home, away AmericanOdds) (float64, error) {
	pHome, err := AmericanToImpliedProbability(home)
	if err != nil {
		return 0, err
	}
	pAway, err := AmericanToImpliedProbability(away)
	if err != nil {
		return 0, err
	}
	return pHome + pAway - 100, nil
}

// RemoveVig removes the vig/juice from a two-way market
// Returns the fair percentages that sum to 100
//
// Method: Multiplicative vig removal (proportional)
// fairA = 100 * impliedA / (impliedA + impliedB)
func RemoveVig(impliedA, impliedB float64) (float64, float64) {
	if impliedA <= 0 || impliedB <= 0 {
		return 0, 0
	}

	total := impliedA + impliedB
	return 100 * impliedA / total, 100 * impliedB / total
}

// RemoveVigFromAmerican converts American odds to vig-free percentages
func RemoveVigFromAmerican(oddsA, oddsB AmericanOdds) (float64, float64) {
	impliedA, errA := AmericanToImpliedProbability(oddsA)
	impliedB, errB := AmericanToImpliedProbability(oddsB)
	if errA != nil || errB != nil {
		return 0, 0
	}
	return RemoveVig(impliedA, impliedB)
}

// RemoveVigPower removes vig using the Power method
// This accounts for the favorite-longshot bias: longshots are systematically overbet.
// Finds k such that p1^k + p2^k = 1 (on the 0-1 scale), then:
// - fair1 = p1^k
// - fair2 = p2^k
// This deflates longshot probabilities more than favorites.
// Inputs and outputs are percentages.
func RemoveVigPower(impliedA, impliedB float64) (float64, float64) {
	if impliedA <= 0 || impliedB <= 0 || impliedA >= 100 || impliedB >= 100 {
		return 0, 0
	}

	p1, p2 := impliedA/100, impliedB/100

	// Already fair
	if math.Abs(p1+p2-1.0) < 1e-9 {
		return impliedA, impliedB
	}

	k := findPowerExponent(p1, p2)
	return 100 * math.Pow(p1, k), 100 * math.Pow(p2, k)
}

// findPowerExponent finds k such that p1^k + p2^k = 1 using bisection search
// For 0 < p < 1, higher k reduces p^k
// Overround markets (sum > 1) give k > 1, underround markets give k < 1
func findPowerExponent(p1, p2 float64) float64 {
	const (
		tolerance = 1e-9
		maxIters  = 100
	)

	low, high := 0.01, 10.0

	for i := 0; i < maxIters; i++ {
		mid := (low + high) / 2
		sum := math.Pow(p1, mid) + math.Pow(p2, mid)

		if math.Abs(sum-1.0) < tolerance {
			return mid
		}

		if sum > 1 {
			low = mid
		} else {
			high = mid
		}
	}

	return (low + high) / 2
}

// RemoveVigPowerFromAmerican converts American odds to vig-free percentages using the Power method
func RemoveVigPowerFromAmerican(oddsA, oddsB AmericanOdds) (float64, float64) {
	impliedA, errA := AmericanToImpliedProbability(oddsA)
	impliedB, errB := AmericanToImpliedProbability(oddsB)
	if errA != nil || errB != nil {
		return 0, 0
	}
	return RemoveVigPower(impliedA, impliedB)
}
