package analysis

import (
	"errors"
	"math"
	"testing"

	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

func TestFairOdds(t *testing.T) {
	tests := []struct {
		name     string
		prices   []odds.AmericanOdds
		expected odds.AmericanOdds
	}{
		{"Single book", []odds.AmericanOdds{-110}, -110},
		{"Favorites", []odds.AmericanOdds{-108, -105, -112}, -108},
		{"Underdogs", []odds.AmericanOdds{150, 160}, 155},
		{"Half rounds away from zero (favorite)", []odds.AmericanOdds{-105, -106}, -106},
		{"Half rounds away from zero (underdog)", []odds.AmericanOdds{105, 106}, 106},
		{"Missing prices ignored", []odds.AmericanOdds{0, -120, 0, -130}, -125},
		{"Dead zone prices ignored", []odds.AmericanOdds{50, -150}, -150},
		{"Mixed signs land on even money", []odds.AmericanOdds{-110, 110}, 100},
		{"Mixed signs inside the gap", []odds.AmericanOdds{-200, 150}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FairOdds(tt.prices)
			if err != nil {
				t.Fatalf("FairOdds(%v) unexpected error: %v", tt.prices, err)
			}
			if result != tt.expected {
				t.Errorf("FairOdds(%v) = %d, want %d", tt.prices, result, tt.expected)
			}
		})
	}
}

func TestFairOddsNoData(t *testing.T) {
	for _, prices := range [][]odds.AmericanOdds{nil, {}, {0, 0}, {50, -99}} {
		if _, err := FairOdds(prices); !errors.Is(err, ErrNoMarketData) {
			t.Errorf("FairOdds(%v) error = %v, want ErrNoMarketData", prices, err)
		}
		for _, method := range []FairMethod{ProbabilityMean, LogitMean} {
			if _, err := EstimateFair(prices, method); !errors.Is(err, ErrNoMarketData) {
				t.Errorf("EstimateFair(%v, %s) error = %v, want ErrNoMarketData", prices, method, err)
			}
		}
	}
}

func TestEstimateFairMethods(t *testing.T) {
	tests := []struct {
		name     string
		prices   []odds.AmericanOdds
		method   FairMethod
		expected odds.AmericanOdds
	}{
		{"American mean", []odds.AmericanOdds{-110, -110}, AmericanMean, -110},
		{"Default method", []odds.AmericanOdds{-110, -110}, "", -110},
		{"Probability mean", []odds.AmericanOdds{-110, -110}, ProbabilityMean, -110},
		{"Probability mean symmetric", []odds.AmericanOdds{-150, 150}, ProbabilityMean, 100},
		{"Probability mean across even money", []odds.AmericanOdds{-200, 150}, ProbabilityMean, -114},
		{"Logit mean", []odds.AmericanOdds{-110, -110}, LogitMean, -110},
		{"Logit mean symmetric", []odds.AmericanOdds{-150, 150}, LogitMean, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EstimateFair(tt.prices, tt.method)
			if err != nil {
				t.Fatalf("EstimateFair unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("EstimateFair(%v, %s) = %d, want %d", tt.prices, tt.method, result, tt.expected)
			}
		})
	}

	if _, err := EstimateFair([]odds.AmericanOdds{-110}, DevigPower); err == nil {
		t.Error("EstimateFair should reject a two-sided method")
	}
}

func TestFairSideDevigPower(t *testing.T) {
	m := market.New(market.Key{HomeTeam: "Texas", AwayTeam: "Oklahoma", Week: 7},
		market.Quote{Bookmaker: "DK", HomeOdds: market.Odds(-110), AwayOdds: market.Odds(-110)},
		market.Quote{Bookmaker: "FD", HomeOdds: market.Odds(-120)}, // one-sided, skipped
	)

	fair, err := FairSide(m, market.Home, DevigPower)
	if err != nil {
		t.Fatal(err)
	}
	pct, _ := odds.AmericanToImpliedProbability(fair)
	if math.Abs(pct-50) > 0.5 {
		t.Errorf("devigged -110/-110 should be even money, got %d (%.2f%%)", fair, pct)
	}

	empty := market.New(market.Key{}, market.Quote{Bookmaker: "FD", HomeOdds: market.Odds(-120)})
	if _, err := FairSide(empty, market.Home, DevigPower); !errors.Is(err, ErrNoMarketData) {
		t.Errorf("FairSide without two-sided quotes error = %v, want ErrNoMarketData", err)
	}
}

func TestFairSideDevigMultiplicative(t *testing.T) {
	m := market.New(market.Key{HomeTeam: "Ohio State", AwayTeam: "Purdue", Week: 8},
		market.Quote{Bookmaker: "DK", HomeOdds: market.Odds(-300), AwayOdds: market.Odds(250)},
	)

	mult, err := FairSide(m, market.Home, DevigMultiplicative)
	if err != nil {
		t.Fatal(err)
	}
	multPct, _ := odds.AmericanToImpliedProbability(mult)
	// 75 / (75 + 28.571) = 72.41%
	if math.Abs(multPct-72.41) > 0.2 {
		t.Errorf("multiplicative home fair = %d (%.2f%%), want ~72.41%%", mult, multPct)
	}

	power, err := FairSide(m, market.Home, DevigPower)
	if err != nil {
		t.Fatal(err)
	}
	powerPct, _ := odds.AmericanToImpliedProbability(power)
	if powerPct <= multPct {
		t.Errorf("power favorite %.2f%% should be above multiplicative %.2f%%", powerPct, multPct)
	}

	if _, err := EstimateFair(m.Prices(market.Home), DevigMultiplicative); err == nil {
		t.Error("EstimateFair should reject a two-sided method")
	}
}

func TestParseFairMethod(t *testing.T) {
	for _, s := range []string{"", "american_mean", "probability_mean", "logit_mean", "devig_power", "devig_multiplicative"} {
		if _, err := ParseFairMethod(s); err != nil {
			t.Errorf("ParseFairMethod(%q) unexpected error: %v", s, err)
		}
	}
	if m, _ := ParseFairMethod(""); m != AmericanMean {
		t.Errorf("ParseFairMethod(\"\") = %q, want %q", m, AmericanMean)
	}
	if _, err := ParseFairMethod("median"); err == nil {
		t.Error("ParseFairMethod should reject unknown methods")
	}
}

func TestBestPrice(t *testing.T) {
	quotes := []market.Quote{
		{Bookmaker: "DK", HomeOdds: market.Odds(-108), AwayOdds: market.Odds(-112)},
		{Bookmaker: "ESPN", HomeOdds: market.Odds(-105), AwayOdds: market.Odds(-110)},
		{Bookmaker: "MGM", HomeOdds: market.Odds(-105)},
	}

	home, ok := BestPrice(quotes, market.Home)
	if !ok || home.Bookmaker != "ESPN" || home.Odds != -105 {
		t.Errorf("best home = %+v, want ESPN -105 (first of tie)", home)
	}
	away, ok := BestPrice(quotes, market.Away)
	if !ok || away.Bookmaker != "ESPN" || away.Odds != -110 {
		t.Errorf("best away = %+v, want ESPN -110", away)
	}

	if _, ok := BestPrice([]market.Quote{{Bookmaker: "X"}}, market.Home); ok {
		t.Error("BestPrice should report no price for an empty side")
	}
}
