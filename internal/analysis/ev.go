package analysis

import (
	"math"

	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

// CalculateEV returns the expected value, in percent of stake, of betting at
// best when the true probability is the one implied by fair:
// EV = (bestDecimal / fairDecimal - 1) * 100
// Missing or invalid prices return 0. Negative values are returned as-is; use
// ClampEV before display.
func CalculateEV(best, fair odds.AmericanOdds) float64 {
	bestDec, err := odds.AmericanToDecimal(best)
	if err != nil {
		return 0
	}
	fairDec, err := odds.AmericanToDecimal(fair)
	if err != nil {
		return 0
	}

	fairProb := 1 / float64(fairDec)
	return (float64(bestDec)*fairProb - 1) * 100
}

// ClampEV floors an EV at zero for display.
func ClampEV(ev float64) float64 {
	return math.Max(0, ev)
}

// SideEV is the value of betting one side at its best price.
type SideEV struct {
	Side            market.Side       `json:"side"`
	Bookmaker       string            `json:"bookmaker"`
	BestOdds        odds.AmericanOdds `json:"best_odds"`
	FairOdds        odds.AmericanOdds `json:"fair_odds"`
	FairProbability float64           `json:"fair_probability"` // percent
	EV              float64           `json:"ev"`               // percent, may be negative
	KellyStake      float64           `json:"kelly_stake"`      // fraction of bankroll
	KellyBet        float64           `json:"kelly_bet"`        // dollars on a TotalStake bankroll
	BookCount       int               `json:"book_count"`
}

// EvaluateSide prices one side of a market: best quote, fair estimate, EV and
// Kelly sizing against cfg.TotalStake. It returns ErrNoMarketData when the side has no valid quote.
func EvaluateSide(m *market.Market, side market.Side, cfg Config) (*SideEV, error) {
	best, ok := BestPrice(m.Quotes, side)
	if !ok {
		return nil, ErrNoMarketData
	}

	fair, err := FairSide(m, side, cfg.FairMethod)
	if err != nil {
		return nil, err
	}

	fairProb, err := odds.AmericanToImpliedProbability(fair)
	if err != nil {
		return nil, err
	}
	bestDec, err := odds.AmericanToDecimal(best.Odds)
	if err != nil {
		return nil, err
	}

	kelly := CalculateKellyDecimal(fairProb/100, float64(bestDec), cfg.KellyFraction)
	return &SideEV{
		Side:            side,
		Bookmaker:       best.Bookmaker,
		BestOdds:        best.Odds,
		FairOdds:        fair,
		FairProbability: fairProb,
		EV:              CalculateEV(best.Odds, fair),
		KellyStake:      kelly,
		KellyBet:        CalculateKellyBetSize(fairProb/100, float64(bestDec), cfg.KellyFraction, cfg.TotalStake, 0),
		BookCount:       len(validPrices(m.Prices(side))),
	}, nil
}

// ScaledEVThreshold raises the EV threshold (percent) when few books are
// quoting. At fullBookCount or more: base. Each missing book adds 1%.
func ScaledEVThreshold(baseThreshold float64, bookCount, fullBookCount int) float64 {
	gap := fullBookCount - bookCount
	if gap <= 0 {
		return baseThreshold
	}
	return baseThreshold + float64(gap)
}
