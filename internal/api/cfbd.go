package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

const (
	requestTimeout = 10 * time.Second
	maxRetries     = 3
)

// CFBDClient fetches betting lines from the CollegeFootballData API.
type CFBDClient struct {
	apiKey  string
	baseURL string
	client  *RateLimitedClient
}

// NewCFBDClient creates a new API client
func NewCFBDClient(apiKey, baseURL string, requestsPerMinute int) *CFBDClient {
	return &CFBDClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  NewRateLimitedClient(requestsPerMinute, requestTimeout, maxRetries),
	}
}

// GameLines is one game and every provider's lines for it.
type GameLines struct {
	ID         int        `json:"id"`
	Season     int        `json:"season"`
	SeasonType string     `json:"seasonType"`
	Week       int        `json:"week"`
	StartDate  *time.Time `json:"startDate"`
	HomeTeam   string     `json:"homeTeam"`
	HomeScore  *int       `json:"homeScore"`
	AwayTeam   string     `json:"awayTeam"`
	AwayScore  *int       `json:"awayScore"`
	Lines      []Line     `json:"lines"`
}

// Line is one provider's lines. Any field may be null.
type Line struct {
	Provider        string   `json:"provider"`
	Spread          *float64 `json:"spread"`
	FormattedSpread string   `json:"formattedSpread"`
	SpreadOpen      *float64 `json:"spreadOpen"`
	OverUnder       *float64 `json:"overUnder"`
	OverUnderOpen   *float64 `json:"overUnderOpen"`
	HomeMoneyline   *int     `json:"homeMoneyline"`
	AwayMoneyline   *int     `json:"awayMoneyline"`
}

// GetLines fetches lines for one week of a season.
func (c *CFBDClient) GetLines(ctx context.Context, year, week int, seasonType string) ([]GameLines, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("week", strconv.Itoa(week))
	if seasonType != "" {
		q.Set("seasonType", seasonType)
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	body, err := c.client.Get(ctx, fmt.Sprintf("%s/lines?%s", c.baseURL, q.Encode()), headers)
	if err != nil {
		return nil, fmt.Errorf("fetching lines: %w", err)
	}

	var games []GameLines
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, fmt.Errorf("parsing lines response: %w", err)
	}
	return games, nil
}

// IsAggregateProvider reports whether a provider publishes a blend of other
// books rather than its own prices.
func IsAggregateProvider(provider string) bool {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "consensus", "teamrankings", "numberfire":
		return true
	}
	return false
}

// ToLines flattens games into market lines, dropping aggregate providers.
func ToLines(games []GameLines) []market.Line {
	var lines []market.Line
	for _, g := range games {
		key := market.Key{HomeTeam: g.HomeTeam, AwayTeam: g.AwayTeam, Week: g.Week}
		for _, l := range g.Lines {
			if IsAggregateProvider(l.Provider) {
				continue
			}
			lines = append(lines, market.Line{Key: key, Quote: l.Quote()})
		}
	}
	return lines
}

// ToMarkets groups games into markets.
func ToMarkets(games []GameLines) []*market.Market {
	return market.Group(ToLines(games))
}

// Quote converts a provider line into a market quote. Moneylines outside the
// valid American range are dropped rather than passed on.
func (l Line) Quote() market.Quote {
	return market.Quote{
		Bookmaker: l.Provider,
		HomeOdds:  moneyline(l.HomeMoneyline),
		AwayOdds:  moneyline(l.AwayMoneyline),
		Spread:    l.Spread,
		OverUnder: l.OverUnder,
	}
}

func moneyline(v *int) *odds.AmericanOdds {
	if v == nil {
		return nil
	}
	a := odds.AmericanOdds(*v)
	if !a.Valid() {
		return nil
	}
	return &a
}
