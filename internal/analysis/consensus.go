package analysis

import (
	"math"

	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/mathutil"
	"cfb-odds-engine/internal/odds"
)

// CFBMarginStdDev is the standard deviation of college football final margin
// around the closing spread. College games are more lopsided than the pros,
// so this runs wider than the NFL's ~13.5.
const CFBMarginStdDev = 16.0

// ConsensusLines summarizes the spread and total posted across books.
// Median is used so a single stale book cannot drag the line.
type ConsensusLines struct {
	Spread      *float64 `json:"spread,omitempty"` // home spread, negative when home is favored
	SpreadBooks int      `json:"spread_books"`
	Total       *float64 `json:"total,omitempty"`
	TotalBooks  int      `json:"total_books"`
}

// CalculateConsensusLines returns the median spread and total for a market.
func CalculateConsensusLines(m *market.Market) ConsensusLines {
	var c ConsensusLines
	if spreads := m.Spreads(); len(spreads) > 0 {
		s := mathutil.Median(spreads)
		c.Spread = &s
		c.SpreadBooks = len(spreads)
	}
	if totals := m.Totals(); len(totals) > 0 {
		t := mathutil.Median(totals)
		c.Total = &t
		c.TotalBooks = len(totals)
	}
	return c
}

// SpreadWinProbability converts a home spread into a home win probability
// (percent), modeling the final margin as N(-spread, sd).
func SpreadWinProbability(homeSpread, sd float64) float64 {
	if sd <= 0 {
		return 0
	}
	return 100 * mathutil.NormalCDF(-homeSpread/sd)
}

// ImpliedSpread is the inverse of SpreadWinProbability: the home spread a
// fair moneyline implies. Rounded to the nearest half point.
func ImpliedSpread(homeFair odds.AmericanOdds, sd float64) (float64, error) {
	pct, err := odds.AmericanToImpliedProbability(homeFair)
	if err != nil {
		return 0, err
	}
	spread := -sd * mathutil.NormalInvCDF(pct/100)
	return math.Round(spread*2) / 2, nil
}

// BookVig is one book's margin on the moneyline.
type BookVig struct {
	Bookmaker string  `json:"bookmaker"`
	Overround float64 `json:"overround"` // percent; negative means the book alone is an arbitrage
}

// MarketVig returns the overround for every book quoting both sides.
func MarketVig(m *market.Market) []BookVig {
	var out []BookVig
	for _, q := range m.Quotes {
		v, err := odds.Overround(q.Price(market.Home), q.Price(market.Away))
		if err != nil {
			continue
		}
		out = append(out, BookVig{Bookmaker: q.Bookmaker, Overround: v})
	}
	return out
}
