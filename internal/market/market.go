package market

import "cfb-odds-engine/internal/odds"

// Side identifies one outcome of a two-way market.
type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

// Quote is one bookmaker's lines for a game. Nil fields mean the book does
// not offer that line.
type Quote struct {
	Bookmaker string             `json:"bookmaker"`
	HomeOdds  *odds.AmericanOdds `json:"home_odds,omitempty"`
	AwayOdds  *odds.AmericanOdds `json:"away_odds,omitempty"`
	Spread    *float64           `json:"spread,omitempty"`
	OverUnder *float64           `json:"over_under,omitempty"`
}

// Price returns the moneyline for a side, or 0 when the book has none.
func (q Quote) Price(side Side) odds.AmericanOdds {
	var p *odds.AmericanOdds
	switch side {
	case Home:
		p = q.HomeOdds
	case Away:
		p = q.AwayOdds
	}
	if p == nil {
		return 0
	}
	return *p
}

// Key identifies a game within a season.
type Key struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Week     int    `json:"week"`
}

// Market is the set of quotes for one game, at most one per bookmaker,
// in the order bookmakers were first seen.
type Market struct {
	Key    Key     `json:"key"`
	Quotes []Quote `json:"quotes"`
}

// New builds a market from quotes, collapsing duplicate bookmakers.
func New(key Key, quotes ...Quote) *Market {
	m := &Market{Key: key}
	for _, q := range quotes {
		m.Add(q)
	}
	return m
}

// Add inserts a quote. A later quote from the same bookmaker replaces the
// earlier one in place so ordering stays stable.
func (m *Market) Add(q Quote) {
	for i := range m.Quotes {
		if m.Quotes[i].Bookmaker == q.Bookmaker {
			m.Quotes[i] = q
			return
		}
	}
	m.Quotes = append(m.Quotes, q)
}

// Prices returns the moneyline for a side from every quote, 0 where missing.
// The result is index-aligned with Quotes.
func (m *Market) Prices(side Side) []odds.AmericanOdds {
	prices := make([]odds.AmericanOdds, len(m.Quotes))
	for i, q := range m.Quotes {
		prices[i] = q.Price(side)
	}
	return prices
}

// Spreads returns every posted spread.
func (m *Market) Spreads() []float64 {
	var out []float64
	for _, q := range m.Quotes {
		if q.Spread != nil {
			out = append(out, *q.Spread)
		}
	}
	return out
}

// Totals returns every posted over/under.
func (m *Market) Totals() []float64 {
	var out []float64
	for _, q := range m.Quotes {
		if q.OverUnder != nil {
			out = append(out, *q.OverUnder)
		}
	}
	return out
}

// Line is a flat feed row tagged with the game it belongs to.
type Line struct {
	Key
	Quote
}

// Group collects lines into markets keyed by (home, away, week). Markets are
// returned in the order their first line appeared.
func Group(lines []Line) []*Market {
	index := make(map[Key]*Market)
	var markets []*Market
	for _, l := range lines {
		m, ok := index[l.Key]
		if !ok {
			m = &Market{Key: l.Key}
			index[l.Key] = m
			markets = append(markets, m)
		}
		m.Add(l.Quote)
	}
	return markets
}

// Odds returns a pointer to a, for building quotes in literals.
func Odds(a int) *odds.AmericanOdds {
	v := odds.AmericanOdds(a)
	return &v
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}
