package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/ledger"
	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

// Notifier handles alert notifications
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
	logger     *logrus.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(cooldown time.Duration, logger *logrus.Logger) *Notifier {
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
		logger:     logger,
	}
}

// checkCooldown reports whether key fired within the cooldown and records it if not.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if lastTime, ok := n.lastAlerts[key]; ok {
		if time.Since(lastTime) < n.cooldown {
			return true
		}
	}
	n.lastAlerts[key] = time.Now()
	return false
}

func gameFields(key market.Key) logrus.Fields {
	return logrus.Fields{
		"game": fmt.Sprintf("%s@%s", key.AwayTeam, key.HomeTeam),
		"week": key.Week,
	}
}

// AlertEV sends an alert for a +EV side. Returns false when suppressed by cooldown.
func (n *Notifier) AlertEV(key market.Key, ev *analysis.SideEV) bool {
	alertKey := fmt.Sprintf("ev-%s-%s-%d-%s-%s-%d", key.HomeTeam, key.AwayTeam, key.Week, ev.Side, ev.Bookmaker, ev.BestOdds)
	if n.checkCooldown(alertKey) {
		return false
	}

	team := key.HomeTeam
	if ev.Side == market.Away {
		team = key.AwayTeam
	}

	n.logger.WithFields(gameFields(key)).WithFields(logrus.Fields{
		"side":  ev.Side,
		"book":  ev.Bookmaker,
		"books": ev.BookCount,
	}).Infof("+EV: %s %s at %s (fair %s, %s) ev=%s kelly=%.1f%%",
		team, odds.FormatAmericanOdds(ev.BestOdds), ev.Bookmaker,
		odds.FormatAmericanOdds(ev.FairOdds), odds.FormatPercent(ev.FairProbability),
		odds.FormatPercent(analysis.ClampEV(ev.EV)), ev.KellyStake*100,
	)
	return true
}

// AlertArbitrage sends an alert for an arbitrage. alloc may be nil.
func (n *Notifier) AlertArbitrage(key market.Key, opp *analysis.ArbitrageOpportunity, alloc *analysis.StakeAllocation) bool {
	alertKey := fmt.Sprintf("arb-%s-%s-%d-%s%d-%s%d", key.HomeTeam, key.AwayTeam, key.Week,
		opp.HomeBook, opp.HomeOdds, opp.AwayBook, opp.AwayOdds)
	if n.checkCooldown(alertKey) {
		return false
	}

	entry := n.logger.WithFields(gameFields(key)).WithField("margin", opp.MarginPercent)
	if alloc != nil {
		entry = entry.WithFields(logrus.Fields{
			"stake_home": odds.FormatMoney(alloc.StakeA),
			"stake_away": odds.FormatMoney(alloc.StakeB),
			"profit":     odds.FormatMoney(alloc.Profit),
		})
	}
	entry.Infof("ARB: %s %s at %s / %s %s at %s margin=%s",
		key.HomeTeam, odds.FormatAmericanOdds(opp.HomeOdds), opp.HomeBook,
		key.AwayTeam, odds.FormatAmericanOdds(opp.AwayOdds), opp.AwayBook,
		odds.FormatPercent(opp.MarginPercent),
	)
	return true
}

// AlertHedge sends an alert for a hedge opportunity on a saved plan
func (n *Notifier) AlertHedge(h ledger.HedgeOpportunity) bool {
	alertKey := fmt.Sprintf("hedge-%s-%s-%d", h.Plan.ID, h.Bookmaker, h.Odds)
	if n.checkCooldown(alertKey) {
		return false
	}

	n.logger.WithFields(gameFields(h.Plan.Key())).WithFields(logrus.Fields{
		"plan":   h.Plan.ID,
		"profit": odds.FormatMoney(h.GuaranteedProfit),
	}).Infof("HEDGE: %s", h.Description)
	return true
}

// LogScan logs a scan completion
func (n *Notifier) LogScan(markets, evOpps, arbs, hedges int, stale bool) {
	n.logger.WithFields(logrus.Fields{
		"markets": markets,
		"ev":      evOpps,
		"arbs":    arbs,
		"hedges":  hedges,
		"stale":   stale,
	}).Info("Scan complete")
}

// LogError logs an error
func (n *Notifier) LogError(context string, err error) {
	n.logger.WithField("context", context).WithError(err).Error("scan error")
}

// CleanupOldAlerts removes stale alert records
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-max(n.cooldown, time.Hour))
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
