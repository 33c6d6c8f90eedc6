package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cfb-odds-engine/internal/api"
	"cfb-odds-engine/internal/market"
)

// ErrNoSnapshot is returned when the fetch fails and nothing is cached.
var ErrNoSnapshot = errors.New("no odds snapshot available")

// Source fetches one week of lines.
type Source interface {
	GetLines(ctx context.Context, year, week int, seasonType string) ([]api.GameLines, error)
}

// Snapshot is one week of markets as of FetchedAt.
type Snapshot struct {
	Year      int              `json:"year"`
	Week      int              `json:"week"`
	FetchedAt time.Time        `json:"fetched_at"`
	Stale     bool             `json:"stale"` // served from cache after a failed fetch
	Games     []api.GameLines  `json:"-"`
	Markets   []*market.Market `json:"markets"`
}

type cachedSnapshot struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Games     []api.GameLines `json:"games"`
}

// Loader fetches lines with a deadline and falls back to the last good
// snapshot when the fetch fails or times out.
type Loader struct {
	source     Source
	cache      Cache
	timeout    time.Duration
	ttl        time.Duration
	seasonType string
	logger     *logrus.Logger
}

// NewLoader creates a loader. cache may be nil to disable fallback.
func NewLoader(source Source, cache Cache, timeout, ttl time.Duration, seasonType string, logger *logrus.Logger) *Loader {
	return &Loader{
		source:     source,
		cache:      cache,
		timeout:    timeout,
		ttl:        ttl,
		seasonType: seasonType,
		logger:     logger,
	}
}

func (l *Loader) cacheKey(year, week int) string {
	return fmt.Sprintf("lines:%d:%s:%d", year, l.seasonType, week)
}

// Load returns the markets for a week. A fresh fetch is cached; on failure
// the cached copy is returned with Stale set.
func (l *Loader) Load(ctx context.Context, year, week int) (*Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	games, fetchErr := l.source.GetLines(fetchCtx, year, week, l.seasonType)
	if fetchErr == nil {
		snap := newSnapshot(year, week, time.Now().UTC(), games)
		l.store(ctx, year, week, snap)
		return snap, nil
	}

	log := l.logger.WithFields(logrus.Fields{"year": year, "week": week})
	log.WithError(fetchErr).Warn("lines fetch failed, trying cache")

	snap, err := l.cached(ctx, year, week)
	if err != nil {
		log.WithError(err).Error("cache read failed")
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSnapshot, fetchErr)
	}
	log.WithField("fetched_at", snap.FetchedAt).Info("serving cached lines")
	return snap, nil
}

func newSnapshot(year, week int, fetchedAt time.Time, games []api.GameLines) *Snapshot {
	return &Snapshot{
		Year:      year,
		Week:      week,
		FetchedAt: fetchedAt,
		Games:     games,
		Markets:   api.ToMarkets(games),
	}
}

func (l *Loader) store(ctx context.Context, year, week int, snap *Snapshot) {
	if l.cache == nil {
		return
	}
	data, err := json.Marshal(cachedSnapshot{FetchedAt: snap.FetchedAt, Games: snap.Games})
	if err != nil {
		l.logger.WithError(err).Error("encoding snapshot")
		return
	}
	if err := l.cache.Set(ctx, l.cacheKey(year, week), data, l.ttl); err != nil {
		l.logger.WithError(err).Warn("caching snapshot")
	}
}

func (l *Loader) cached(ctx context.Context, year, week int) (*Snapshot, error) {
	if l.cache == nil {
		return nil, nil
	}
	data, ok, err := l.cache.Get(ctx, l.cacheKey(year, week))
	if err != nil || !ok {
		return nil, err
	}
	var c cachedSnapshot
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	snap := newSnapshot(year, week, c.FetchedAt, c.Games)
	snap.Stale = true
	return snap, nil
}
