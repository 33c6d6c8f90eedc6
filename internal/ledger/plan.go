package ledger

import (
	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/market"
)

// NewArbitragePlan builds a two-leg plan from a detected arbitrage and its
// stake split.
func NewArbitragePlan(key market.Key, opp *analysis.ArbitrageOpportunity, alloc *analysis.StakeAllocation) Plan {
	return Plan{
		HomeTeam:       key.HomeTeam,
		AwayTeam:       key.AwayTeam,
		Week:           key.Week,
		HomeBook:       opp.HomeBook,
		HomeOdds:       opp.HomeOdds,
		HomeStake:      alloc.StakeA,
		AwayBook:       opp.AwayBook,
		AwayOdds:       opp.AwayOdds,
		AwayStake:      alloc.StakeB,
		ExpectedProfit: alloc.Profit,
	}
}

// NewValuePlan builds a one-sided plan for a +EV bet. Expected profit is
// stake * EV.
func NewValuePlan(key market.Key, ev *analysis.SideEV, stake float64) Plan {
	p := Plan{
		HomeTeam:       key.HomeTeam,
		AwayTeam:       key.AwayTeam,
		Week:           key.Week,
		ExpectedProfit: stake * ev.EV / 100,
	}
	if ev.Side == market.Home {
		p.HomeBook, p.HomeOdds, p.HomeStake = ev.Bookmaker, ev.BestOdds, stake
	} else {
		p.AwayBook, p.AwayOdds, p.AwayStake = ev.Bookmaker, ev.BestOdds, stake
	}
	return p
}
