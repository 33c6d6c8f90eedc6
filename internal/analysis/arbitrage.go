package analysis

import (
	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

// ArbitrageOpportunity is the best home price and best away price across all
// books when together they imply less than 100%.
type ArbitrageOpportunity struct {
	HomeBook        string            `json:"home_book"`
	HomeOdds        odds.AmericanOdds `json:"home_odds"`
	AwayBook        string            `json:"away_book"`
	AwayOdds        odds.AmericanOdds `json:"away_odds"`
	CombinedImplied float64           `json:"combined_implied"` // percent
	MarginPercent   float64           `json:"margin_percent"`   // 100 - CombinedImplied
}

// FindBestArbitrageOpportunity picks the best price for each side
// independently, so the two legs may come from different books or the same
// book. It returns nil when either side has no valid price or the combined
// implied probability is 100% or more.
func FindBestArbitrageOpportunity(quotes []market.Quote) *ArbitrageOpportunity {
	home, ok := BestPrice(quotes, market.Home)
	if !ok {
		return nil
	}
	away, ok := BestPrice(quotes, market.Away)
	if !ok {
		return nil
	}

	pHome, err := odds.AmericanToImpliedProbability(home.Odds)
	if err != nil {
		return nil
	}
	pAway, err := odds.AmericanToImpliedProbability(away.Odds)
	if err != nil {
		return nil
	}

	combined := pHome + pAway
	if combined >= 100 {
		return nil
	}

	return &ArbitrageOpportunity{
		HomeBook:        home.Bookmaker,
		HomeOdds:        home.Odds,
		AwayBook:        away.Bookmaker,
		AwayOdds:        away.Odds,
		CombinedImplied: combined,
		MarginPercent:   100 - combined,
	}
}

// Stakes splits totalStake across both legs for an equal payout.
func (a *ArbitrageOpportunity) Stakes(totalStake float64) *StakeAllocation {
	return CalculateArbitrageStakes(a.HomeOdds, a.AwayOdds, totalStake)
}
