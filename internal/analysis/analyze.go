package analysis

import (
	"errors"

	"cfb-odds-engine/internal/market"
)

// Config holds analysis configuration
type Config struct {
	FairMethod    FairMethod
	EVThreshold   float64 // Minimum EV in percent to flag an opportunity (e.g., 2.0)
	MinArbMargin  float64 // Minimum arbitrage margin in percent to flag
	KellyFraction float64 // Fraction of Kelly to use (e.g., 0.25 = quarter Kelly)
	TotalStake    float64 // Stake split across arbitrage legs in summaries
	FullBookCount int     // Book count at which the EV threshold stops scaling up
	MarginStdDev  float64 // Final margin standard deviation for spread conversions
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		FairMethod:    AmericanMean,
		EVThreshold:   2.0,
		MinArbMargin:  0,
		KellyFraction: 0.25,
		TotalStake:    100,
		FullBookCount: 4,
		MarginStdDev:  CFBMarginStdDev,
	}
}

// MarketAnalysis is everything the engine derives from one market snapshot.
type MarketAnalysis struct {
	Key       market.Key            `json:"key"`
	BookCount int                   `json:"book_count"`
	Home      *SideEV               `json:"home,omitempty"`
	Away      *SideEV               `json:"away,omitempty"`
	Arbitrage *ArbitrageOpportunity `json:"arbitrage,omitempty"`
	Stakes    *StakeAllocation      `json:"stakes,omitempty"`
	Vig       []BookVig             `json:"vig"`
	Lines     ConsensusLines        `json:"lines"`

	// Home win probability implied by the consensus spread, percent.
	SpreadWinProbability *float64 `json:"spread_win_probability,omitempty"`
	// Home spread implied by the fair home moneyline.
	ImpliedSpread *float64 `json:"implied_spread,omitempty"`
}

// AnalyzeMarket runs every calculation over one market. Sparse markets are
// fine: sides without quotes are left nil, never an error. Errors are only
// returned for unexpected failures such as an unusable fair method.
func AnalyzeMarket(m *market.Market, cfg Config) (*MarketAnalysis, error) {
	a := &MarketAnalysis{
		Key:       m.Key,
		BookCount: len(m.Quotes),
		Vig:       MarketVig(m),
		Lines:     CalculateConsensusLines(m),
	}

	for _, side := range []market.Side{market.Home, market.Away} {
		ev, err := EvaluateSide(m, side, cfg)
		if errors.Is(err, ErrNoMarketData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if side == market.Home {
			a.Home = ev
		} else {
			a.Away = ev
		}
	}

	a.Arbitrage = FindBestArbitrageOpportunity(m.Quotes)
	if a.Arbitrage != nil && cfg.TotalStake > 0 {
		a.Stakes = a.Arbitrage.Stakes(cfg.TotalStake)
	}

	sd := cfg.MarginStdDev
	if sd <= 0 {
		sd = CFBMarginStdDev
	}
	if a.Lines.Spread != nil {
		p := SpreadWinProbability(*a.Lines.Spread, sd)
		a.SpreadWinProbability = &p
	}
	if a.Home != nil {
		if s, err := ImpliedSpread(a.Home.FairOdds, sd); err == nil {
			a.ImpliedSpread = &s
		}
	}

	return a, nil
}

// Opportunities returns the sides whose EV clears the book-count scaled threshold.
func (a *MarketAnalysis) Opportunities(cfg Config) []*SideEV {
	var out []*SideEV
	for _, s := range []*SideEV{a.Home, a.Away} {
		if s == nil {
			continue
		}
		if s.EV >= ScaledEVThreshold(cfg.EVThreshold, s.BookCount, cfg.FullBookCount) {
			out = append(out, s)
		}
	}
	return out
}

// HasArbitrage reports whether the market holds an arbitrage above the configured margin.
func (a *MarketAnalysis) HasArbitrage(cfg Config) bool {
	return a.Arbitrage != nil && a.Arbitrage.MarginPercent > cfg.MinArbMargin
}
