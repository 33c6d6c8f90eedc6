package analysis

import "math"

// CalculateKellyDecimal returns the Kelly fraction of bankroll for a bet at
// decimal odds d with win probability p (0-1), scaled by fraction:
// f* = (p*d - 1) / (d - 1)
// which is KellyWithEdge with edge p*d - 1 and implied probability 1/d.
func CalculateKellyDecimal(trueProb, decimalOdds, fraction float64) float64 {
	if decimalOdds <= 1 || trueProb <= 0 || trueProb >= 1 {
		return 0
	}
	return KellyWithEdge(trueProb*decimalOdds-1, 1/decimalOdds, fraction)
}

// KellyWithEdge sizes a bet from its edge (expected profit per unit staked)
// and the price's implied probability (0-1). The result is clamped to [0, 1]
// before scaling.
func KellyWithEdge(edge, impliedProb, fraction float64) float64 {
	if impliedProb <= 0 || impliedProb >= 1 {
		return 0
	}

	// net odds b = d - 1 = (1 - q) / q
	b := (1 - impliedProb) / impliedProb
	kelly := math.Min(math.Max(0, edge/b), 1)

	return kelly * fraction
}

// OptimalBetSize converts a bankroll fraction into dollars.
func OptimalBetSize(bankroll, kellyFraction float64) float64 {
	if bankroll <= 0 || kellyFraction <= 0 {
		return 0
	}
	return bankroll * kellyFraction
}

// CalculateKellyBetSize returns the dollar Kelly bet on a price, capped at
// maxBet when maxBet > 0.
func CalculateKellyBetSize(trueProb, decimalOdds, fraction, bankroll, maxBet float64) float64 {
	bet := OptimalBetSize(bankroll, CalculateKellyDecimal(trueProb, decimalOdds, fraction))
	if maxBet > 0 {
		bet = math.Min(bet, maxBet)
	}
	return bet
}
