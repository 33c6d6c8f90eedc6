package engine

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"cfb-odds-engine/internal/alerts"
	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/api"
	"cfb-odds-engine/internal/config"
	"cfb-odds-engine/internal/feed"
	"cfb-odds-engine/internal/ledger"
	"cfb-odds-engine/internal/market"
)

// PreGameSkipWindow skips games about to kick off; lines are moving and
// books pull them at kickoff.
const PreGameSkipWindow = 5 * time.Minute

// Loader supplies week snapshots.
type Loader interface {
	Load(ctx context.Context, year, week int) (*feed.Snapshot, error)
}

// PlanStore lists saved plans for hedge checks.
type PlanStore interface {
	ListPlans(ctx context.Context) ([]ledger.Plan, error)
}

// Engine is the main orchestrator that polls for lines and alerts on +EV
// sides, arbitrage and hedges.
type Engine struct {
	loader      Loader
	notifier    *alerts.Notifier
	plans       PlanStore
	cfg         config.Config
	analysisCfg analysis.Config
	logger      *logrus.Logger
	now         func() time.Time
}

// New creates a new Engine with all dependencies. plans may be nil.
func New(
	loader Loader,
	notifier *alerts.Notifier,
	plans PlanStore,
	cfg config.Config,
	analysisCfg analysis.Config,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		loader:      loader,
		notifier:    notifier,
		plans:       plans,
		cfg:         cfg,
		analysisCfg: analysisCfg,
		logger:      logger,
		now:         time.Now,
	}
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Markets   int
	Skipped   int
	Stale     bool
	EV        []*analysis.SideEV
	Arbitrage []*analysis.MarketAnalysis
	Hedges    []ledger.HedgeOpportunity
}

// Run starts the main polling loop. It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(config.DefaultCleanupInterval)
	defer cleanupTicker.Stop()

	e.logger.WithFields(logrus.Fields{
		"year":     e.cfg.SeasonYear,
		"week":     e.cfg.SeasonWeek,
		"interval": e.cfg.PollInterval,
	}).Info("Starting scanner")

	e.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Scanner stopped gracefully")
			return

		case <-cleanupTicker.C:
			e.notifier.CleanupOldAlerts()

		case <-ticker.C:
			e.Scan(ctx)
		}
	}
}

// upcoming drops games that are finished or about to start.
func upcoming(games []api.GameLines, now time.Time) ([]api.GameLines, int) {
	kept := make([]api.GameLines, 0, len(games))
	for _, g := range games {
		if g.HomeScore != nil || g.AwayScore != nil {
			continue
		}
		if g.StartDate != nil && g.StartDate.Before(now.Add(PreGameSkipWindow)) {
			continue
		}
		kept = append(kept, g)
	}
	return kept, len(games) - len(kept)
}

// Scan performs a single scan cycle: load lines, analyze every market, alert.
func (e *Engine) Scan(ctx context.Context) ScanResult {
	var res ScanResult

	snap, err := e.loader.Load(ctx, e.cfg.SeasonYear, e.cfg.SeasonWeek)
	if err != nil {
		e.notifier.LogError("loading lines", err)
		return res
	}
	res.Stale = snap.Stale

	games, skipped := upcoming(snap.Games, e.now())
	res.Skipped = skipped
	markets := api.ToMarkets(games)
	res.Markets = len(markets)

	var plans []ledger.Plan
	if e.plans != nil {
		plans, err = e.plans.ListPlans(ctx)
		if err != nil {
			e.notifier.LogError("listing plans", err)
		}
	}

	keys := make(map[*analysis.SideEV]market.Key)
	for _, m := range markets {
		a, err := analysis.AnalyzeMarket(m, e.analysisCfg)
		if err != nil {
			e.notifier.LogError("analyzing market", err)
			continue
		}

		for _, opp := range a.Opportunities(e.analysisCfg) {
			keys[opp] = m.Key
			res.EV = append(res.EV, opp)
		}
		if a.HasArbitrage(e.analysisCfg) {
			res.Arbitrage = append(res.Arbitrage, a)
		}
		if len(plans) > 0 {
			res.Hedges = append(res.Hedges, ledger.FindHedgeOpportunities(plans, m)...)
		}
	}

	sort.SliceStable(res.EV, func(i, j int) bool {
		return res.EV[i].EV > res.EV[j].EV
	})
	sort.SliceStable(res.Arbitrage, func(i, j int) bool {
		return res.Arbitrage[i].Arbitrage.MarginPercent > res.Arbitrage[j].Arbitrage.MarginPercent
	})

	for _, opp := range res.EV {
		e.notifier.AlertEV(keys[opp], opp)
	}
	for _, a := range res.Arbitrage {
		e.notifier.AlertArbitrage(a.Key, a.Arbitrage, a.Stakes)
	}
	for _, h := range res.Hedges {
		e.notifier.AlertHedge(h)
	}

	e.notifier.LogScan(res.Markets, len(res.EV), len(res.Arbitrage), len(res.Hedges), res.Stale)
	return res
}
