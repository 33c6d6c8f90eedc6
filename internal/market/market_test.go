package market

import (
	"testing"

	"cfb-odds-engine/internal/odds"
)

func TestQuotePrice(t *testing.T) {
	q := Quote{Bookmaker: "DK", HomeOdds: Odds(-108)}
	if q.Price(Home) != -108 {
		t.Errorf("Price(Home) = %d, want -108", q.Price(Home))
	}
	if q.Price(Away) != 0 {
		t.Errorf("Price(Away) = %d, want 0 for a missing line", q.Price(Away))
	}
}

func TestMarketAddOverwrites(t *testing.T) {
	m := New(Key{HomeTeam: "Georgia", AwayTeam: "Alabama", Week: 3},
		Quote{Bookmaker: "DK", HomeOdds: Odds(-108), AwayOdds: Odds(-112)},
		Quote{Bookmaker: "ESPN", HomeOdds: Odds(-105), AwayOdds: Odds(-110)},
		Quote{Bookmaker: "DK", HomeOdds: Odds(-120), AwayOdds: Odds(100)},
	)

	if len(m.Quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(m.Quotes))
	}
	if m.Quotes[0].Bookmaker != "DK" || m.Quotes[0].Price(Home) != -120 {
		t.Errorf("DK quote should be replaced in place, got %+v", m.Quotes[0])
	}

	got := m.Prices(Away)
	want := []odds.AmericanOdds{100, -110}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Prices(Away)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSpreadsAndTotals(t *testing.T) {
	m := New(Key{},
		Quote{Bookmaker: "A", Spread: Float(-3.5), OverUnder: Float(52.5)},
		Quote{Bookmaker: "B"},
		Quote{Bookmaker: "C", Spread: Float(-4)},
	)
	if s := m.Spreads(); len(s) != 2 || s[0] != -3.5 || s[1] != -4 {
		t.Errorf("Spreads() = %v", s)
	}
	if o := m.Totals(); len(o) != 1 || o[0] != 52.5 {
		t.Errorf("Totals() = %v", o)
	}
}

func TestGroup(t *testing.T) {
	uga := Key{HomeTeam: "Georgia", AwayTeam: "Alabama", Week: 3}
	osu := Key{HomeTeam: "Ohio State", AwayTeam: "Michigan", Week: 3}
	uga4 := Key{HomeTeam: "Georgia", AwayTeam: "Alabama", Week: 4}

	lines := []Line{
		{Key: uga, Quote: Quote{Bookmaker: "DK", HomeOdds: Odds(-150)}},
		{Key: osu, Quote: Quote{Bookmaker: "DK", HomeOdds: Odds(-200)}},
		{Key: uga, Quote: Quote{Bookmaker: "ESPN", HomeOdds: Odds(-145)}},
		{Key: uga4, Quote: Quote{Bookmaker: "DK", HomeOdds: Odds(-110)}},
		{Key: uga, Quote: Quote{Bookmaker: "DK", HomeOdds: Odds(-155)}},
	}

	markets := Group(lines)
	if len(markets) != 3 {
		t.Fatalf("got %d markets, want 3", len(markets))
	}
	if markets[0].Key != uga || markets[1].Key != osu || markets[2].Key != uga4 {
		t.Errorf("markets out of first-seen order: %v %v %v", markets[0].Key, markets[1].Key, markets[2].Key)
	}
	if len(markets[0].Quotes) != 2 {
		t.Fatalf("Georgia week 3 has %d quotes, want 2", len(markets[0].Quotes))
	}
	if markets[0].Quotes[0].Price(Home) != -155 {
		t.Errorf("duplicate DK line should overwrite, got %d", markets[0].Quotes[0].Price(Home))
	}
}

func TestGroupEmpty(t *testing.T) {
	if got := Group(nil); len(got) != 0 {
		t.Errorf("Group(nil) = %v, want empty", got)
	}
}
