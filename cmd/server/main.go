package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"cfb-odds-engine/internal/alerts"
	"cfb-odds-engine/internal/api"
	"cfb-odds-engine/internal/config"
	"cfb-odds-engine/internal/engine"
	"cfb-odds-engine/internal/feed"
	"cfb-odds-engine/internal/ledger"
	"cfb-odds-engine/internal/odds"
	"cfb-odds-engine/internal/server"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	if err := config.Validate(cfg); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.CFBDAPIKey == "" {
		logger.Warn("CFBD_API_KEY not set, requests may be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components
	cache, closeCache := newCache(ctx, cfg, logger)
	defer closeCache()

	client := api.NewCFBDClient(cfg.CFBDAPIKey, cfg.CFBDBaseURL, cfg.RequestsPerMinute)
	loader := feed.NewLoader(client, cache, cfg.FetchTimeout, cfg.CacheTTL, cfg.SeasonType, logger)
	analysisCfg := cfg.Analysis()

	// Plans are optional; the API answers 503 for them without a DB
	var plans server.PlanStore
	var enginePlans engine.PlanStore
	db, err := ledger.NewDB(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Warn("DB disabled")
	} else {
		defer db.Close()
		plans, enginePlans = db, db
	}

	logger.WithFields(logrus.Fields{
		"season":  fmt.Sprintf("%d/%s/week %d", cfg.SeasonYear, cfg.SeasonType, cfg.SeasonWeek),
		"ev":      fmt.Sprintf("%.1f%%", cfg.EVThreshold),
		"method":  analysisCfg.FairMethod,
		"kelly":   fmt.Sprintf("%.0f%%", cfg.KellyFraction*100),
		"stake":   odds.FormatMoney(cfg.DefaultStake),
		"scanner": cfg.ScannerEnabled,
	}).Info("Starting cfb-odds-engine")

	if cfg.ScannerEnabled {
		notifier := alerts.NewNotifier(cfg.AlertCooldown, logger)
		scanner := engine.New(loader, notifier, enginePlans, cfg, analysisCfg, logger)
		go scanner.Run(ctx)
	}

	handler := server.NewHandler(loader, plans, analysisCfg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.NewRouter(handler, cfg.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
	logger.Info("Stopped")
}

// newCache connects to Redis when REDIS_ADDR is set and falls back to an
// in-process cache otherwise. REDIS_ADDR may be host:port or a redis:// URL.
func newCache(ctx context.Context, cfg config.Config, logger *logrus.Logger) (feed.Cache, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-memory line cache")
		return feed.NewMemoryCache(), func() {}
	}

	opts := &redis.Options{Addr: cfg.RedisAddr}
	if strings.Contains(cfg.RedisAddr, "://") {
		parsed, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			logger.WithError(err).Fatal("Failed to parse Redis URL")
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-memory line cache")
		client.Close()
		return feed.NewMemoryCache(), func() {}
	}

	logger.WithField("addr", opts.Addr).Info("Using Redis line cache")
	return feed.NewRedisCache(client, "cfb-odds:"), func() { client.Close() }
}
