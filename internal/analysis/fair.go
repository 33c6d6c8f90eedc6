package analysis

import (
	"errors"
	"fmt"
	"math"

	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/mathutil"
	"cfb-odds-engine/internal/odds"
)

// ErrNoMarketData means a side of the market has no valid quotes.
var ErrNoMarketData = errors.New("no market data")

// FairMethod selects how quotes from several books are combined into a fair price.
type FairMethod string

const (
	// AmericanMean averages prices directly in American notation and rounds.
	// The American scale is not linear around +/-100, so a market that straddles
	// even money is biased toward the underdog side. Kept as the default for
	// compatibility with existing displays.
	AmericanMean FairMethod = "american_mean"
	// ProbabilityMean averages implied probabilities and converts back.
	ProbabilityMean FairMethod = "probability_mean"
	// LogitMean averages implied probabilities in log-odds space.
	LogitMean FairMethod = "logit_mean"
	// DevigPower removes each book's margin with the power method, then
	// averages the fair probabilities. Needs both sides from a book.
	DevigPower FairMethod = "devig_power"
	// DevigMultiplicative scales each book's two implied probabilities to sum
	// to 100, then averages. Needs both sides from a book.
	DevigMultiplicative FairMethod = "devig_multiplicative"
)

// twoSided reports whether a method needs both sides of each book.
func (m FairMethod) twoSided() bool {
	return m == DevigPower || m == DevigMultiplicative
}

// ParseFairMethod validates a method name. Empty selects AmericanMean.
func ParseFairMethod(s string) (FairMethod, error) {
	switch m := FairMethod(s); m {
	case "":
		return AmericanMean, nil
	case AmericanMean, ProbabilityMean, LogitMean, DevigPower, DevigMultiplicative:
		return m, nil
	default:
		return "", fmt.Errorf("unknown fair method %q", s)
	}
}

// validPrices drops missing and dead-zone prices.
func validPrices(prices []odds.AmericanOdds) []odds.AmericanOdds {
	valid := make([]odds.AmericanOdds, 0, len(prices))
	for _, p := range prices {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	return valid
}

// FairOdds is the simple-average estimator: round(mean(valid prices)) in
// American space. A mean that lands in the (-100, 100) gap, which only happens
// when books disagree on who is favored, snaps to +100.
func FairOdds(prices []odds.AmericanOdds) (odds.AmericanOdds, error) {
	valid := validPrices(prices)
	if len(valid) == 0 {
		return 0, ErrNoMarketData
	}

	xs := make([]float64, len(valid))
	for i, p := range valid {
		xs[i] = float64(p)
	}
	fair := odds.AmericanOdds(math.Round(mathutil.Mean(xs)))
	if !fair.Valid() {
		fair = 100
	}
	return fair, nil
}

// EstimateFair combines one side's prices with a single-sided method.
// The devig methods need the opposing side and are handled by FairSide.
func EstimateFair(prices []odds.AmericanOdds, method FairMethod) (odds.AmericanOdds, error) {
	switch method {
	case AmericanMean, "":
		return FairOdds(prices)
	case ProbabilityMean, LogitMean:
	default:
		return 0, fmt.Errorf("method %q needs both sides of the market", method)
	}

	valid := validPrices(prices)
	if len(valid) == 0 {
		return 0, ErrNoMarketData
	}

	xs := make([]float64, len(valid))
	for i, p := range valid {
		pct, err := odds.AmericanToImpliedProbability(p)
		if err != nil {
			return 0, err
		}
		if method == LogitMean {
			xs[i] = mathutil.Logit(pct / 100)
		} else {
			xs[i] = pct
		}
	}

	pct := mathutil.Mean(xs)
	if method == LogitMean {
		pct = 100 * mathutil.Sigmoid(pct)
	}
	return odds.ImpliedProbabilityToAmerican(pct)
}

// FairSide estimates the fair price for one side of a market.
func FairSide(m *market.Market, side market.Side, method FairMethod) (odds.AmericanOdds, error) {
	if !method.twoSided() {
		return EstimateFair(m.Prices(side), method)
	}

	devig := odds.RemoveVigPowerFromAmerican
	if method == DevigMultiplicative {
		devig = odds.RemoveVigFromAmerican
	}

	var fair []float64
	for _, q := range m.Quotes {
		home, away := q.Price(market.Home), q.Price(market.Away)
		if !home.Valid() || !away.Valid() {
			continue
		}
		h, a := devig(home, away)
		if side == market.Home {
			fair = append(fair, h)
		} else {
			fair = append(fair, a)
		}
	}
	if len(fair) == 0 {
		return 0, ErrNoMarketData
	}
	return odds.ImpliedProbabilityToAmerican(mathutil.Mean(fair))
}

// BestQuote is the best available price for a side and the book offering it.
type BestQuote struct {
	Bookmaker string            `json:"bookmaker"`
	Odds      odds.AmericanOdds `json:"odds"`
}

// BestPrice returns the best price for a side using odds.Better. Ties go to
// the first book in market order. ok is false when no book has a valid price.
func BestPrice(quotes []market.Quote, side market.Side) (BestQuote, bool) {
	prices := make([]odds.AmericanOdds, len(quotes))
	for i, q := range quotes {
		prices[i] = q.Price(side)
	}
	i := odds.Best(prices)
	if i < 0 {
		return BestQuote{}, false
	}
	return BestQuote{Bookmaker: quotes[i].Bookmaker, Odds: prices[i]}, true
}
