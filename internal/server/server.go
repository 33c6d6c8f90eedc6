package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/feed"
	"cfb-odds-engine/internal/ledger"
	"cfb-odds-engine/internal/market"
)

// WeekLoader supplies week snapshots.
type WeekLoader interface {
	Load(ctx context.Context, year, week int) (*feed.Snapshot, error)
}

// PlanStore persists stake plans.
type PlanStore interface {
	AddPlan(ctx context.Context, p ledger.Plan) (ledger.Plan, error)
	GetPlan(ctx context.Context, id string) (*ledger.Plan, error)
	ListPlans(ctx context.Context) ([]ledger.Plan, error)
	PlansForGame(ctx context.Context, key market.Key) ([]ledger.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	loader      WeekLoader
	plans       PlanStore
	analysisCfg analysis.Config
	logger      *logrus.Logger
}

// NewHandler creates a new handler. loader and plans may be nil; their
// endpoints then answer 503.
func NewHandler(loader WeekLoader, plans PlanStore, analysisCfg analysis.Config, logger *logrus.Logger) *Handler {
	return &Handler{
		loader:      loader,
		plans:       plans,
		analysisCfg: analysisCfg,
		logger:      logger,
	}
}

// NewRouter wires every route with the standard middleware stack.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/odds/convert", h.ConvertOdds)
		r.Post("/fair", h.FairValue)
		r.Post("/ev", h.ExpectedValue)
		r.Post("/arbitrage", h.Arbitrage)
		r.Post("/stakes", h.Stakes)
		r.Post("/markets/analyze", h.AnalyzeMarket)
		r.Get("/weeks/{year}/{week}", h.Week)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Post("/from-market", h.CreatePlanFromMarket)
			r.Get("/{id}", h.GetPlan)
			r.Delete("/{id}", h.DeletePlan)
		})
	})

	return r
}

func requestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start),
				"request":  middleware.GetReqID(r.Context()),
			}).Debug("request")
		})
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
