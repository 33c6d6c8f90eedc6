package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"cfb-odds-engine/internal/analysis"
)

// Defaults for configuration values.
const (
	DefaultPort              = "8080"
	DefaultCFBDBaseURL       = "https://api.collegefootballdata.com"
	DefaultSeasonWeek        = 1
	DefaultSeasonType        = "regular"
	DefaultRequestsPerMinute = 60
	DefaultFetchTimeout      = 10 * time.Second
	DefaultPollInterval      = 60 * time.Second
	DefaultCacheTTL          = 6 * time.Hour
	DefaultDBPath            = "/data/plans.db"
	DefaultEVThreshold       = 2.0
	DefaultMinArbMargin      = 0.0
	DefaultKellyFraction     = 0.25
	DefaultFairMethod        = string(analysis.AmericanMean)
	DefaultStake             = 100.0
	DefaultMinBookCount      = 4
	DefaultAlertCooldown     = 30 * time.Minute
	DefaultCleanupInterval   = 10 * time.Minute
	DefaultAllowedOrigins    = "http://localhost:3000"
	DefaultLogLevel          = "info"
)

// Config holds all application configuration.
type Config struct {
	Port string

	// CollegeFootballData lines feed
	CFBDAPIKey        string
	CFBDBaseURL       string
	SeasonYear        int
	SeasonWeek        int
	SeasonType        string
	RequestsPerMinute int
	FetchTimeout      time.Duration
	PollInterval      time.Duration

	// Snapshot cache; empty RedisAddr keeps it in memory
	RedisAddr string
	CacheTTL  time.Duration

	DBPath string

	// Analysis settings (percent scale)
	EVThreshold   float64
	MinArbMargin  float64
	KellyFraction float64
	FairMethod    string
	DefaultStake  float64
	MinBookCount  int

	AlertCooldown  time.Duration
	ScannerEnabled bool
	AllowedOrigins []string
	LogLevel       string
}

// DefaultSeasonYear returns the season a date falls in. Bowl games in
// January through July belong to the previous year's season.
func DefaultSeasonYear(now time.Time) int {
	if now.Month() < time.August {
		return now.Year() - 1
	}
	return now.Year()
}

// Load reads configuration from environment variables (and .env file if present).
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("CFBD_BASE_URL", DefaultCFBDBaseURL)
	v.SetDefault("SEASON_YEAR", DefaultSeasonYear(time.Now()))
	v.SetDefault("SEASON_WEEK", DefaultSeasonWeek)
	v.SetDefault("SEASON_TYPE", DefaultSeasonType)
	v.SetDefault("CFBD_REQUESTS_PER_MIN", DefaultRequestsPerMinute)
	v.SetDefault("FETCH_TIMEOUT_MS", DefaultFetchTimeout.Milliseconds())
	v.SetDefault("POLL_INTERVAL_MS", DefaultPollInterval.Milliseconds())
	v.SetDefault("CACHE_TTL_MIN", int(DefaultCacheTTL.Minutes()))
	v.SetDefault("DB_PATH", DefaultDBPath)
	v.SetDefault("EV_THRESHOLD_PCT", DefaultEVThreshold)
	v.SetDefault("MIN_ARB_MARGIN_PCT", DefaultMinArbMargin)
	v.SetDefault("KELLY_FRACTION", DefaultKellyFraction)
	v.SetDefault("FAIR_METHOD", DefaultFairMethod)
	v.SetDefault("DEFAULT_STAKE", DefaultStake)
	v.SetDefault("MIN_BOOK_COUNT", DefaultMinBookCount)
	v.SetDefault("ALERT_COOLDOWN_MIN", int(DefaultAlertCooldown.Minutes()))
	v.SetDefault("SCANNER_ENABLED", false)
	v.SetDefault("ALLOWED_ORIGINS", DefaultAllowedOrigins)
	v.SetDefault("LOG_LEVEL", DefaultLogLevel)

	return Config{
		Port:              v.GetString("PORT"),
		CFBDAPIKey:        v.GetString("CFBD_API_KEY"),
		CFBDBaseURL:       strings.TrimRight(v.GetString("CFBD_BASE_URL"), "/"),
		SeasonYear:        v.GetInt("SEASON_YEAR"),
		SeasonWeek:        v.GetInt("SEASON_WEEK"),
		SeasonType:        v.GetString("SEASON_TYPE"),
		RequestsPerMinute: v.GetInt("CFBD_REQUESTS_PER_MIN"),
		FetchTimeout:      time.Duration(v.GetInt64("FETCH_TIMEOUT_MS")) * time.Millisecond,
		PollInterval:      time.Duration(v.GetInt64("POLL_INTERVAL_MS")) * time.Millisecond,
		RedisAddr:         v.GetString("REDIS_ADDR"),
		CacheTTL:          time.Duration(v.GetInt64("CACHE_TTL_MIN")) * time.Minute,
		DBPath:            v.GetString("DB_PATH"),
		EVThreshold:       v.GetFloat64("EV_THRESHOLD_PCT"),
		MinArbMargin:      v.GetFloat64("MIN_ARB_MARGIN_PCT"),
		KellyFraction:     v.GetFloat64("KELLY_FRACTION"),
		FairMethod:        v.GetString("FAIR_METHOD"),
		DefaultStake:      v.GetFloat64("DEFAULT_STAKE"),
		MinBookCount:      v.GetInt("MIN_BOOK_COUNT"),
		AlertCooldown:     time.Duration(v.GetInt64("ALERT_COOLDOWN_MIN")) * time.Minute,
		ScannerEnabled:    v.GetBool("SCANNER_ENABLED"),
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:          v.GetString("LOG_LEVEL"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.EVThreshold < 0 || cfg.EVThreshold > 100 {
		return fmt.Errorf("EV_THRESHOLD_PCT must be between 0 and 100, got %f", cfg.EVThreshold)
	}
	if cfg.MinArbMargin < 0 || cfg.MinArbMargin > 100 {
		return fmt.Errorf("MIN_ARB_MARGIN_PCT must be between 0 and 100, got %f", cfg.MinArbMargin)
	}
	if cfg.KellyFraction <= 0 || cfg.KellyFraction > 1 {
		return fmt.Errorf("KELLY_FRACTION must be between 0 and 1, got %f", cfg.KellyFraction)
	}
	if _, err := analysis.ParseFairMethod(cfg.FairMethod); err != nil {
		return fmt.Errorf("FAIR_METHOD: %w", err)
	}
	if cfg.DefaultStake <= 0 {
		return fmt.Errorf("DEFAULT_STAKE must be positive, got %f", cfg.DefaultStake)
	}
	if cfg.MinBookCount < 1 {
		return fmt.Errorf("MIN_BOOK_COUNT must be at least 1, got %d", cfg.MinBookCount)
	}
	if cfg.SeasonWeek < 1 || cfg.SeasonWeek > 20 {
		return fmt.Errorf("SEASON_WEEK must be between 1 and 20, got %d", cfg.SeasonWeek)
	}
	if cfg.SeasonType != "regular" && cfg.SeasonType != "postseason" {
		return fmt.Errorf("SEASON_TYPE must be regular or postseason, got %q", cfg.SeasonType)
	}
	if cfg.RequestsPerMinute < 6 {
		return fmt.Errorf("CFBD_REQUESTS_PER_MIN must be at least 6, got %d", cfg.RequestsPerMinute)
	}
	if cfg.FetchTimeout < 100*time.Millisecond {
		return fmt.Errorf("FETCH_TIMEOUT_MS must be at least 100ms, got %v", cfg.FetchTimeout)
	}
	if cfg.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("POLL_INTERVAL_MS must be at least 10ms, got %v", cfg.PollInterval)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_MIN must be positive, got %v", cfg.CacheTTL)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Analysis returns the analysis settings. Call after Validate.
func (c Config) Analysis() analysis.Config {
	method, _ := analysis.ParseFairMethod(c.FairMethod)
	cfg := analysis.DefaultConfig()
	cfg.FairMethod = method
	cfg.EVThreshold = c.EVThreshold
	cfg.MinArbMargin = c.MinArbMargin
	cfg.KellyFraction = c.KellyFraction
	cfg.TotalStake = c.DefaultStake
	cfg.FullBookCount = c.MinBookCount
	return cfg
}

// NewLogger builds a logrus logger at the configured level, falling back to info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
