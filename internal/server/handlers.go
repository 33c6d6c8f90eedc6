package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/feed"
	"cfb-odds-engine/internal/ledger"
	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "cfb-odds-engine",
	})
}

// Conversion is one price in every notation.
type Conversion struct {
	American           odds.AmericanOdds `json:"american"`
	Decimal            odds.DecimalOdds  `json:"decimal"`
	ImpliedProbability float64           `json:"implied_probability"`
	Display            ConversionDisplay `json:"display"`
}

// ConversionDisplay holds the formatted strings for a Conversion.
type ConversionDisplay struct {
	American           string `json:"american"`
	Decimal            string `json:"decimal"`
	ImpliedProbability string `json:"implied_probability"`
}

func newConversion(a odds.AmericanOdds, d odds.DecimalOdds, p float64) Conversion {
	return Conversion{
		American:           a,
		Decimal:            d,
		ImpliedProbability: p,
		Display: ConversionDisplay{
			American:           odds.FormatAmericanOdds(a),
			Decimal:            odds.FormatDecimalOdds(d),
			ImpliedProbability: odds.FormatPercent(p),
		},
	}
}

// ConvertOdds converts a price given as ?american=, ?decimal= or ?probability= (percent).
// GET /api/v1/odds/convert?american=-110
func (h *Handler) ConvertOdds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		a   odds.AmericanOdds
		d   odds.DecimalOdds
		p   float64
		err error
	)

	switch {
	case q.Get("american") != "":
		var v int
		if v, err = strconv.Atoi(q.Get("american")); err != nil {
			respondError(w, http.StatusBadRequest, "american must be an integer")
			return
		}
		a = odds.AmericanOdds(v)
		if d, err = odds.AmericanToDecimal(a); err == nil {
			p, err = odds.DecimalToImpliedProbability(d)
		}

	case q.Get("decimal") != "":
		var v float64
		if v, err = strconv.ParseFloat(q.Get("decimal"), 64); err != nil {
			respondError(w, http.StatusBadRequest, "decimal must be a number")
			return
		}
		d = odds.DecimalOdds(v)
		if a, err = odds.DecimalToAmerican(d); err == nil {
			p, err = odds.DecimalToImpliedProbability(d)
		}

	case q.Get("probability") != "":
		if p, err = strconv.ParseFloat(q.Get("probability"), 64); err != nil {
			respondError(w, http.StatusBadRequest, "probability must be a number")
			return
		}
		if d, err = odds.ImpliedProbabilityToDecimal(p); err == nil {
			a, err = odds.DecimalToAmerican(d)
		}

	default:
		respondError(w, http.StatusBadRequest, "one of american, decimal or probability is required")
		return
	}

	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, newConversion(a, d, p))
}

// FairRequest asks for a fair price from a set of book prices.
type FairRequest struct {
	Prices []odds.AmericanOdds `json:"prices"`
	Method string              `json:"method,omitempty"`
}

// FairResponse is a fair price estimate.
type FairResponse struct {
	Method          analysis.FairMethod `json:"method"`
	FairOdds        odds.AmericanOdds   `json:"fair_odds"`
	FairProbability float64             `json:"fair_probability"`
	Display         string              `json:"display"`
}

// FairValue estimates a fair price from one side's book prices.
// POST /api/v1/fair
func (h *Handler) FairValue(w http.ResponseWriter, r *http.Request) {
	var req FairRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	method, err := h.method(req.Method)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fair, err := analysis.EstimateFair(req.Prices, method)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	prob, _ := odds.AmericanToImpliedProbability(fair)

	respondJSON(w, http.StatusOK, FairResponse{
		Method:          method,
		FairOdds:        fair,
		FairProbability: prob,
		Display:         odds.FormatAmericanOdds(fair),
	})
}

func (h *Handler) method(name string) (analysis.FairMethod, error) {
	if name == "" {
		return h.analysisCfg.FairMethod, nil
	}
	return analysis.ParseFairMethod(name)
}

// EVRequest asks for the EV of a price. Either FairOdds or Prices must be set;
// Prices are reduced to a fair price with Method.
type EVRequest struct {
	BestOdds odds.AmericanOdds   `json:"best_odds"`
	FairOdds odds.AmericanOdds   `json:"fair_odds,omitempty"`
	Prices   []odds.AmericanOdds `json:"prices,omitempty"`
	Method   string              `json:"method,omitempty"`
}

// EVResponse is the expected value of a price.
type EVResponse struct {
	BestOdds odds.AmericanOdds `json:"best_odds"`
	FairOdds odds.AmericanOdds `json:"fair_odds"`
	EV       float64           `json:"ev"`
	Display  string            `json:"display"` // floored at 0
}

// ExpectedValue computes EV in percent. Invalid prices give an EV of 0.
// POST /api/v1/ev
func (h *Handler) ExpectedValue(w http.ResponseWriter, r *http.Request) {
	var req EVRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	fair := req.FairOdds
	if fair == 0 && len(req.Prices) > 0 {
		method, err := h.method(req.Method)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if fair, err = analysis.EstimateFair(req.Prices, method); err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	ev := analysis.CalculateEV(req.BestOdds, fair)
	respondJSON(w, http.StatusOK, EVResponse{
		BestOdds: req.BestOdds,
		FairOdds: fair,
		EV:       ev,
		Display:  odds.FormatPercent(analysis.ClampEV(ev)),
	})
}

// ArbitrageRequest is a set of quotes to scan.
type ArbitrageRequest struct {
	Quotes     []market.Quote `json:"quotes"`
	TotalStake float64        `json:"total_stake,omitempty"`
}

// ArbitrageResponse holds the best arbitrage, or nulls when there is none.
type ArbitrageResponse struct {
	Arbitrage *analysis.ArbitrageOpportunity `json:"arbitrage"`
	Stakes    *analysis.StakeAllocation      `json:"stakes"`
}

// Arbitrage finds the best cross-book arbitrage in a set of quotes.
// POST /api/v1/arbitrage
func (h *Handler) Arbitrage(w http.ResponseWriter, r *http.Request) {
	var req ArbitrageRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.TotalStake < 0 {
		respondError(w, http.StatusBadRequest, "total_stake must not be negative")
		return
	}
	if req.TotalStake == 0 {
		req.TotalStake = h.analysisCfg.TotalStake
	}

	var resp ArbitrageResponse
	resp.Arbitrage = analysis.FindBestArbitrageOpportunity(req.Quotes)
	if resp.Arbitrage != nil {
		resp.Stakes = resp.Arbitrage.Stakes(req.TotalStake)
	}
	respondJSON(w, http.StatusOK, resp)
}

// StakesRequest asks for an equal-payout split of a stake over two prices.
type StakesRequest struct {
	OddsA      odds.AmericanOdds `json:"odds_a"`
	OddsB      odds.AmericanOdds `json:"odds_b"`
	TotalStake float64           `json:"total_stake"`
}

// StakesResponse is an allocation with display strings.
type StakesResponse struct {
	*analysis.StakeAllocation
	Display map[string]string `json:"display"`
}

// Stakes splits a stake so both outcomes pay the same.
// POST /api/v1/stakes
func (h *Handler) Stakes(w http.ResponseWriter, r *http.Request) {
	var req StakesRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	alloc := analysis.CalculateArbitrageStakes(req.OddsA, req.OddsB, req.TotalStake)
	if alloc == nil {
		respondError(w, http.StatusUnprocessableEntity, "total_stake must be positive and both odds valid")
		return
	}

	respondJSON(w, http.StatusOK, StakesResponse{
		StakeAllocation: alloc,
		Display: map[string]string{
			"stake_a": odds.FormatMoney(alloc.StakeA),
			"stake_b": odds.FormatMoney(alloc.StakeB),
			"payout":  odds.FormatMoney(alloc.Payout),
			"profit":  odds.FormatMoney(alloc.Profit),
		},
	})
}

// AnalyzeRequest is one game's quotes.
type AnalyzeRequest struct {
	market.Key
	Quotes []market.Quote `json:"quotes"`
	Method string         `json:"method,omitempty"`
}

// GameAnalysis is a market analysis with the opportunities that clear the
// configured thresholds.
type GameAnalysis struct {
	*analysis.MarketAnalysis
	Opportunities []*analysis.SideEV `json:"opportunities"`
	HasArbitrage  bool               `json:"has_arbitrage"`
}

func (h *Handler) analyze(m *market.Market, cfg analysis.Config) (GameAnalysis, error) {
	a, err := analysis.AnalyzeMarket(m, cfg)
	if err != nil {
		return GameAnalysis{}, err
	}
	opps := a.Opportunities(cfg)
	if opps == nil {
		opps = []*analysis.SideEV{}
	}
	return GameAnalysis{
		MarketAnalysis: a,
		Opportunities:  opps,
		HasArbitrage:   a.HasArbitrage(cfg),
	}, nil
}

// AnalyzeMarket runs the full analysis over one game's quotes.
// POST /api/v1/markets/analyze
func (h *Handler) AnalyzeMarket(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	cfg := h.analysisCfg
	method, err := h.method(req.Method)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.FairMethod = method

	result, err := h.analyze(market.New(req.Key, req.Quotes...), cfg)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// WeekResponse is the analysis of every game in a week.
type WeekResponse struct {
	Year      int            `json:"year"`
	Week      int            `json:"week"`
	FetchedAt time.Time      `json:"fetched_at"`
	Stale     bool           `json:"stale"`
	Games     []GameAnalysis `json:"games"`
}

// Week loads and analyzes one week of lines.
// GET /api/v1/weeks/{year}/{week}
func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		respondError(w, http.StatusServiceUnavailable, "line feed not configured")
		return
	}

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 1 || week > 20 {
		respondError(w, http.StatusBadRequest, "invalid week")
		return
	}

	snap, err := h.loader.Load(r.Context(), year, week)
	if errors.Is(err, feed.ErrNoSnapshot) {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Week failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := WeekResponse{
		Year:      snap.Year,
		Week:      snap.Week,
		FetchedAt: snap.FetchedAt,
		Stale:     snap.Stale,
		Games:     make([]GameAnalysis, 0, len(snap.Markets)),
	}
	for _, m := range snap.Markets {
		g, err := h.analyze(m, h.analysisCfg)
		if err != nil {
			h.logger.WithError(err).WithField("game", m.Key).Warn("analysis failed")
			continue
		}
		resp.Games = append(resp.Games, g)
	}

	respondJSON(w, http.StatusOK, resp)
}

func validatePlan(p ledger.Plan) error {
	if p.HomeTeam == "" || p.AwayTeam == "" {
		return errors.New("home_team and away_team are required")
	}
	if p.HomeStake < 0 || p.AwayStake < 0 {
		return errors.New("stakes must not be negative")
	}
	if p.HomeStake == 0 && p.AwayStake == 0 {
		return errors.New("at least one stake is required")
	}
	if p.HomeStake > 0 && !p.HomeOdds.Valid() {
		return fmt.Errorf("invalid home_odds %d", p.HomeOdds)
	}
	if p.AwayStake > 0 && !p.AwayOdds.Valid() {
		return fmt.Errorf("invalid away_odds %d", p.AwayOdds)
	}
	return nil
}

// CreatePlan saves a stake plan. id and created_at are assigned by the store.
// POST /api/v1/plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	if h.plans == nil {
		respondError(w, http.StatusServiceUnavailable, "plan store not configured")
		return
	}

	var p ledger.Plan
	if err := decode(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if err := validatePlan(p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.plans.AddPlan(r.Context(), p)
	if err != nil {
		h.logger.WithError(err).Error("CreatePlan failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// PlanFromMarketRequest is a game's quotes plus which plan to save from them.
type PlanFromMarketRequest struct {
	AnalyzeRequest
	Kind  string      `json:"kind"`
	Side  market.Side `json:"side,omitempty"`
	Stake float64     `json:"stake,omitempty"`
	Note  string      `json:"note,omitempty"`
}

// valuePick returns the requested side when it has positive EV, or the
// flagged opportunity with the highest EV.
func valuePick(g GameAnalysis, side market.Side) *analysis.SideEV {
	switch side {
	case market.Home:
		if g.Home != nil && g.Home.EV > 0 {
			return g.Home
		}
		return nil
	case market.Away:
		if g.Away != nil && g.Away.EV > 0 {
			return g.Away
		}
		return nil
	}

	var best *analysis.SideEV
	for _, o := range g.Opportunities {
		if best == nil || o.EV > best.EV {
			best = o
		}
	}
	return best
}

// CreatePlanFromMarket analyzes a game and saves the arbitrage or value plan
// it supports.
// POST /api/v1/plans/from-market
func (h *Handler) CreatePlanFromMarket(w http.ResponseWriter, r *http.Request) {
	if h.plans == nil {
		respondError(w, http.StatusServiceUnavailable, "plan store not configured")
		return
	}

	var req PlanFromMarketRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.HomeTeam == "" || req.AwayTeam == "" {
		respondError(w, http.StatusBadRequest, "home_team and away_team are required")
		return
	}
	if req.Stake < 0 {
		respondError(w, http.StatusBadRequest, "stake must not be negative")
		return
	}
	if req.Side != "" && req.Side != market.Home && req.Side != market.Away {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid side %q", req.Side))
		return
	}

	cfg := h.analysisCfg
	method, err := h.method(req.Method)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.FairMethod = method

	g, err := h.analyze(market.New(req.Key, req.Quotes...), cfg)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var p ledger.Plan
	switch req.Kind {
	case "arbitrage":
		if !g.HasArbitrage {
			respondError(w, http.StatusUnprocessableEntity, "no arbitrage in market")
			return
		}
		total := req.Stake
		if total == 0 {
			total = cfg.TotalStake
		}
		alloc := g.Arbitrage.Stakes(total)
		if alloc == nil {
			respondError(w, http.StatusUnprocessableEntity, "could not split stake")
			return
		}
		p = ledger.NewArbitragePlan(g.Key, g.Arbitrage, alloc)
	case "value":
		ev := valuePick(g, req.Side)
		if ev == nil {
			respondError(w, http.StatusUnprocessableEntity, "no positive EV side in market")
			return
		}
		stake := req.Stake
		if stake == 0 {
			stake = ev.KellyBet
		}
		if stake <= 0 {
			stake = cfg.TotalStake
		}
		p = ledger.NewValuePlan(g.Key, ev, stake)
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid kind %q (want arbitrage or value)", req.Kind))
		return
	}
	p.Note = req.Note

	if err := validatePlan(p); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := h.plans.AddPlan(r.Context(), p)
	if err != nil {
		h.logger.WithError(err).Error("CreatePlanFromMarket failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// ListPlans lists saved plans, optionally for one game.
// GET /api/v1/plans?home_team=Georgia&away_team=Tennessee&week=3
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	if h.plans == nil {
		respondError(w, http.StatusServiceUnavailable, "plan store not configured")
		return
	}

	q := r.URL.Query()
	var (
		plans []ledger.Plan
		err   error
	)
	if q.Get("home_team") != "" || q.Get("away_team") != "" {
		week, convErr := strconv.Atoi(q.Get("week"))
		if convErr != nil {
			respondError(w, http.StatusBadRequest, "week is required with a game filter")
			return
		}
		key := market.Key{HomeTeam: q.Get("home_team"), AwayTeam: q.Get("away_team"), Week: week}
		plans, err = h.plans.PlansForGame(r.Context(), key)
	} else {
		plans, err = h.plans.ListPlans(r.Context())
	}
	if err != nil {
		h.logger.WithError(err).Error("ListPlans failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, plans)
}

// GetPlan returns one plan.
// GET /api/v1/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	if h.plans == nil {
		respondError(w, http.StatusServiceUnavailable, "plan store not configured")
		return
	}

	p, err := h.plans.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("GetPlan failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DeletePlan removes a plan.
// DELETE /api/v1/plans/{id}
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if h.plans == nil {
		respondError(w, http.StatusServiceUnavailable, "plan store not configured")
		return
	}

	err := h.plans.DeletePlan(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("DeletePlan failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
