package analysis

import (
	"math"

	"cfb-odds-engine/internal/odds"
)

// StakeAllocation splits a total stake across two outcomes so either one pays
// the same amount.
type StakeAllocation struct {
	StakeA float64 `json:"stake_a"`
	StakeB float64 `json:"stake_b"`
	Payout float64 `json:"payout"`
	Profit float64 `json:"profit"` // Payout - total stake, negative when the pair is not an arbitrage
}

// CalculateArbitrageStakes allocates totalStake in proportion to each side's
// implied probability:
// stakeA = total * (1/dA) / (1/dA + 1/dB), stakeB = total - stakeA
// It works for any pair, not only arbitrage pairs. Returns nil for a
// non-positive stake or an invalid price.
func CalculateArbitrageStakes(oddsA, oddsB odds.AmericanOdds, totalStake float64) *StakeAllocation {
	if totalStake <= 0 || math.IsNaN(totalStake) || math.IsInf(totalStake, 0) {
		return nil
	}
	dA, err := odds.AmericanToDecimal(oddsA)
	if err != nil {
		return nil
	}
	dB, err := odds.AmericanToDecimal(oddsB)
	if err != nil {
		return nil
	}

	invA, invB := 1/float64(dA), 1/float64(dB)
	stakeA := totalStake * invA / (invA + invB)
	stakeB := totalStake - stakeA
	payout := stakeA * float64(dA)

	return &StakeAllocation{
		StakeA: stakeA,
		StakeB: stakeB,
		Payout: payout,
		Profit: payout - totalStake,
	}
}
