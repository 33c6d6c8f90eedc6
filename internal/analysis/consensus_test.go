package analysis

import (
	"math"
	"testing"

	"cfb-odds-engine/internal/market"
)

func TestCalculateConsensusLines(t *testing.T) {
	m := market.New(market.Key{HomeTeam: "Oregon", AwayTeam: "Washington", Week: 11},
		market.Quote{Bookmaker: "A", Spread: market.Float(-3.5), OverUnder: market.Float(55.5)},
		market.Quote{Bookmaker: "B", Spread: market.Float(-3), OverUnder: market.Float(56)},
		market.Quote{Bookmaker: "C", Spread: market.Float(-10)}, // stale outlier
		market.Quote{Bookmaker: "D"},
	)

	c := CalculateConsensusLines(m)
	if c.Spread == nil || *c.Spread != -3.5 {
		t.Errorf("consensus spread = %v, want -3.5", c.Spread)
	}
	if c.SpreadBooks != 3 {
		t.Errorf("spread books = %d, want 3", c.SpreadBooks)
	}
	if c.Total == nil || *c.Total != 55.75 {
		t.Errorf("consensus total = %v, want 55.75", c.Total)
	}
	if c.TotalBooks != 2 {
		t.Errorf("total books = %d, want 2", c.TotalBooks)
	}

	empty := CalculateConsensusLines(market.New(market.Key{}, market.Quote{Bookmaker: "A"}))
	if empty.Spread != nil || empty.Total != nil {
		t.Errorf("empty market should have no lines, got %+v", empty)
	}
}

func TestSpreadWinProbability(t *testing.T) {
	tests := []struct {
		spread   float64
		expected float64
		delta    float64
	}{
		{0, 50, 0.001},
		{-7, 66.9, 0.1},
		{7, 33.1, 0.1},
		{-21, 90.5, 0.2},
	}

	for _, tt := range tests {
		result := SpreadWinProbability(tt.spread, CFBMarginStdDev)
		if math.Abs(result-tt.expected) > tt.delta {
			t.Errorf("SpreadWinProbability(%v) = %.2f, want %.2f", tt.spread, result, tt.expected)
		}
	}

	if SpreadWinProbability(-7, 0) != 0 {
		t.Error("SpreadWinProbability should return 0 for a non-positive sd")
	}
}

func TestImpliedSpread(t *testing.T) {
	even, err := ImpliedSpread(100, CFBMarginStdDev)
	if err != nil {
		t.Fatal(err)
	}
	if even != 0 {
		t.Errorf("ImpliedSpread(+100) = %v, want 0", even)
	}

	fav, _ := ImpliedSpread(-200, CFBMarginStdDev)
	if math.Abs(fav-(-7)) > 0.5 {
		t.Errorf("ImpliedSpread(-200) = %v, want about -7", fav)
	}
	if math.Mod(fav*2, 1) != 0 {
		t.Errorf("ImpliedSpread(-200) = %v, want a half-point line", fav)
	}

	if _, err := ImpliedSpread(0, CFBMarginStdDev); err == nil {
		t.Error("ImpliedSpread should fail on a missing price")
	}
}

func TestMarketVig(t *testing.T) {
	m := market.New(market.Key{},
		market.Quote{Bookmaker: "A", HomeOdds: market.Odds(-108), AwayOdds: market.Odds(105)},
		market.Quote{Bookmaker: "B", HomeOdds: market.Odds(102), AwayOdds: market.Odds(-115)},
		market.Quote{Bookmaker: "C", HomeOdds: market.Odds(-110)},
	)

	vig := MarketVig(m)
	if len(vig) != 2 {
		t.Fatalf("got %d books, want 2", len(vig))
	}
	if vig[0].Bookmaker != "A" || math.Abs(vig[0].Overround-0.70) > 0.01 {
		t.Errorf("book A vig = %+v, want ~0.70", vig[0])
	}
	if vig[1].Bookmaker != "B" || math.Abs(vig[1].Overround-2.99) > 0.01 {
		t.Errorf("book B vig = %+v, want ~2.99", vig[1])
	}
}
