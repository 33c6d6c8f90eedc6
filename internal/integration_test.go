package internal

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/api"
	"cfb-odds-engine/internal/feed"
	"cfb-odds-engine/internal/ledger"
	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

const weekFixture = `[
  {
    "id": 401628374, "season": 2025, "seasonType": "regular", "week": 3,
    "startDate": "2025-09-13T19:30:00.000Z",
    "homeTeam": "Georgia", "homeScore": null, "awayTeam": "Tennessee", "awayScore": null,
    "lines": [
      {"provider": "DraftKings", "spread": -1.5, "overUnder": 48.5, "homeMoneyline": -108, "awayMoneyline": 105},
      {"provider": "ESPN Bet", "spread": -2.5, "overUnder": 49.5, "homeMoneyline": 102, "awayMoneyline": -115},
      {"provider": "consensus", "spread": -2, "overUnder": 49, "homeMoneyline": -110, "awayMoneyline": -110}
    ]
  },
  {
    "id": 401628375, "season": 2025, "seasonType": "regular", "week": 3,
    "startDate": "2025-09-13T23:00:00.000Z",
    "homeTeam": "Alabama", "homeScore": null, "awayTeam": "Wisconsin", "awayScore": null,
    "lines": [
      {"provider": "DraftKings", "spread": -21.5, "overUnder": 55.5, "homeMoneyline": -1400, "awayMoneyline": 800},
      {"provider": "Bovada", "spread": -21, "overUnder": 56, "homeMoneyline": -1600, "awayMoneyline": 900},
      {"provider": "ESPN Bet", "spread": null, "overUnder": null, "homeMoneyline": null, "awayMoneyline": null}
    ]
  }
]`

// TestFullPipeline runs a week of lines from the HTTP feed through analysis
// and into the plan ledger.
func TestFullPipeline(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lines" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(weekFixture))
	}))
	defer ts.Close()

	client := api.NewCFBDClient("test-key", ts.URL, 600)
	loader := feed.NewLoader(client, feed.NewMemoryCache(), 5*time.Second, time.Hour, "regular", logger)

	// Step 1: Load the week
	snap, err := loader.Load(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Markets) != 2 {
		t.Fatalf("Expected 2 markets, got %d", len(snap.Markets))
	}

	georgia := snap.Markets[0]
	if len(georgia.Quotes) != 2 {
		t.Errorf("Aggregate provider should be dropped, got %d quotes", len(georgia.Quotes))
	}

	// Step 2: Analyze every market
	cfg := analysis.DefaultConfig()
	cfg.FullBookCount = 2

	results := make(map[string]*analysis.MarketAnalysis)
	for _, m := range snap.Markets {
		a, err := analysis.AnalyzeMarket(m, cfg)
		if err != nil {
			t.Fatalf("AnalyzeMarket(%s) failed: %v", m.Key.HomeTeam, err)
		}
		results[m.Key.HomeTeam] = a
		t.Logf("%s: books=%d arb=%v vig=%v", m.Key.HomeTeam, a.BookCount, a.Arbitrage != nil, a.Vig)
	}

	ga := results["Georgia"]
	if ga.Arbitrage == nil {
		t.Fatal("Expected arbitrage on Georgia/Tennessee")
	}
	if ga.Arbitrage.HomeBook != "ESPN Bet" || ga.Arbitrage.AwayBook != "DraftKings" {
		t.Errorf("Arbitrage legs = %s/%s, want ESPN Bet/DraftKings", ga.Arbitrage.HomeBook, ga.Arbitrage.AwayBook)
	}
	if math.Abs(ga.Arbitrage.MarginPercent-1.72) > 0.01 {
		t.Errorf("Margin = %.4f, want ~1.72", ga.Arbitrage.MarginPercent)
	}
	if ga.Stakes == nil {
		t.Fatal("Expected stake allocation")
	}
	if math.Abs(ga.Stakes.StakeA+ga.Stakes.StakeB-cfg.TotalStake) > 1e-9 {
		t.Errorf("Stakes sum to %.4f, want %.2f", ga.Stakes.StakeA+ga.Stakes.StakeB, cfg.TotalStake)
	}
	if ga.Lines.Spread == nil || *ga.Lines.Spread != -2 {
		t.Errorf("Consensus spread = %v, want -2", ga.Lines.Spread)
	}

	al := results["Alabama"]
	if al.Arbitrage != nil {
		t.Errorf("Unexpected arbitrage on Alabama: %+v", al.Arbitrage)
	}
	if al.Away == nil || al.Away.BestOdds != 900 || al.Away.FairOdds != 850 {
		t.Fatalf("Wisconsin side = %+v, want best +900 fair +850", al.Away)
	}
	if len(al.Opportunities(cfg)) != 1 {
		t.Errorf("Expected only the Wisconsin side flagged, got %d", len(al.Opportunities(cfg)))
	}

	// Step 3: Save plans
	db, err := ledger.NewDB(filepath.Join(t.TempDir(), "plans.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	arbPlan, err := db.AddPlan(ctx, ledger.NewArbitragePlan(ga.Key, ga.Arbitrage, ga.Stakes))
	if err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}
	if arbPlan.TotalStake() != 100 {
		t.Errorf("Arbitrage plan total = %.2f, want 100", arbPlan.TotalStake())
	}

	entry := &analysis.SideEV{Side: market.Away, Bookmaker: "Bovada", BestOdds: 150, EV: 5}
	if _, err := db.AddPlan(ctx, ledger.NewValuePlan(ga.Key, entry, 100)); err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}

	// Step 4: Hedge check against the current market
	plans, err := db.PlansForGame(ctx, ga.Key)
	if err != nil {
		t.Fatalf("PlansForGame failed: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("Expected 2 plans, got %d", len(plans))
	}

	hedges := ledger.FindHedgeOpportunities(plans, georgia)
	if len(hedges) != 1 {
		t.Fatalf("Expected 1 hedge (value plan only), got %d", len(hedges))
	}
	h := hedges[0]
	if h.Side != market.Home || h.Odds != 102 {
		t.Errorf("Hedge = %s %s, want home +102", h.Side, odds.FormatAmericanOdds(h.Odds))
	}
	// 100 at +150 pays 250; hedging at +102 needs 250/2.02 = 123.76
	if math.Abs(h.HedgeStake-123.76) > 0.01 {
		t.Errorf("Hedge stake = %.2f, want 123.76", h.HedgeStake)
	}
	if h.GuaranteedProfit <= 0 {
		t.Errorf("Hedge profit = %.2f, want positive", h.GuaranteedProfit)
	}
}

// TestPipelineServesStaleWeek checks that a dead feed still yields the last good week.
func TestPipelineServesStaleWeek(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	var down atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(weekFixture))
	}))
	defer ts.Close()

	client := api.NewCFBDClient("", ts.URL, 600)
	loader := feed.NewLoader(client, feed.NewMemoryCache(), 5*time.Second, time.Hour, "regular", logger)

	if _, err := loader.Load(ctx, 2025, 3); err != nil {
		t.Fatalf("first Load failed: %v", err)
	}

	down.Store(true)
	snap, err := loader.Load(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("stale Load failed: %v", err)
	}
	if !snap.Stale {
		t.Error("Expected stale snapshot")
	}
	if len(snap.Markets) != 2 {
		t.Errorf("Expected 2 markets from cache, got %d", len(snap.Markets))
	}
}
