package ledger

import (
	"fmt"

	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

// HedgeOpportunity is a one-sided plan whose opposite side is now priced
// well enough to lock in profit.
type HedgeOpportunity struct {
	Plan             Plan              `json:"plan"`
	Side             market.Side       `json:"side"` // side to hedge on
	Bookmaker        string            `json:"bookmaker"`
	Odds             odds.AmericanOdds `json:"odds"`
	HedgeStake       float64           `json:"hedge_stake"`
	GuaranteedProfit float64           `json:"guaranteed_profit"`
	Description      string            `json:"description"`
}

// FindHedgeOpportunities checks one-sided plans against the current market.
// Plans for other games and fully hedged plans are skipped.
func FindHedgeOpportunities(plans []Plan, m *market.Market) []HedgeOpportunity {
	var opportunities []HedgeOpportunity

	for _, p := range plans {
		if p.Key() != m.Key {
			continue
		}
		if opp := checkHedge(p, m); opp != nil {
			opportunities = append(opportunities, *opp)
		}
	}

	return opportunities
}

func checkHedge(p Plan, m *market.Market) *HedgeOpportunity {
	var entryOdds odds.AmericanOdds
	var entryStake float64
	var hedgeSide market.Side

	switch {
	case p.HomeStake > 0 && p.AwayStake == 0:
		entryOdds, entryStake, hedgeSide = p.HomeOdds, p.HomeStake, market.Away
	case p.AwayStake > 0 && p.HomeStake == 0:
		entryOdds, entryStake, hedgeSide = p.AwayOdds, p.AwayStake, market.Home
	default:
		return nil
	}

	best, ok := analysis.BestPrice(m.Quotes, hedgeSide)
	if !ok {
		return nil
	}

	hedgeStake, profit, err := CalculateHedgeSize(entryOdds, entryStake, best.Odds)
	if err != nil || profit <= 0 {
		return nil
	}

	return &HedgeOpportunity{
		Plan:             p,
		Side:             hedgeSide,
		Bookmaker:        best.Bookmaker,
		Odds:             best.Odds,
		HedgeStake:       hedgeStake,
		GuaranteedProfit: profit,
		Description: fmt.Sprintf("Bet %s on %s %s at %s to lock %s",
			odds.FormatMoney(hedgeStake), hedgeSide, best.Bookmaker,
			odds.FormatAmericanOdds(best.Odds), odds.FormatMoney(profit)),
	}
}

// CalculateHedgeSize returns the opposite-side stake that pays the same as
// the existing bet, and the profit locked in either way.
func CalculateHedgeSize(entryOdds odds.AmericanOdds, entryStake float64, hedgeOdds odds.AmericanOdds) (hedgeStake, profit float64, err error) {
	dEntry, err := odds.AmericanToDecimal(entryOdds)
	if err != nil {
		return 0, 0, err
	}
	dHedge, err := odds.AmericanToDecimal(hedgeOdds)
	if err != nil {
		return 0, 0, err
	}

	payout := entryStake * float64(dEntry)
	hedgeStake = payout / float64(dHedge)
	profit = payout - entryStake - hedgeStake

	return cents(hedgeStake), cents(profit), nil
}
