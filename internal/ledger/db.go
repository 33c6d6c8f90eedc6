package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

// ErrNotFound is returned when a plan ID does not exist.
var ErrNotFound = errors.New("plan not found")

// Plan is a saved stake plan for one game. An arbitrage plan stakes both
// sides; a value bet stakes one side and leaves the other at zero.
type Plan struct {
	ID             string            `json:"id"`
	HomeTeam       string            `json:"home_team"`
	AwayTeam       string            `json:"away_team"`
	Week           int               `json:"week"`
	HomeBook       string            `json:"home_book,omitempty"`
	HomeOdds       odds.AmericanOdds `json:"home_odds,omitempty"`
	HomeStake      float64           `json:"home_stake"`
	AwayBook       string            `json:"away_book,omitempty"`
	AwayOdds       odds.AmericanOdds `json:"away_odds,omitempty"`
	AwayStake      float64           `json:"away_stake"`
	ExpectedProfit float64           `json:"expected_profit"`
	Note           string            `json:"note,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Key returns the game the plan belongs to.
func (p Plan) Key() market.Key {
	return market.Key{HomeTeam: p.HomeTeam, AwayTeam: p.AwayTeam, Week: p.Week}
}

// TotalStake is the sum of both legs.
func (p Plan) TotalStake() float64 {
	return cents(p.HomeStake + p.AwayStake)
}

// cents rounds a dollar amount half away from zero to two places.
func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// DB handles plan storage
type DB struct {
	db *sql.DB
}

// NewDB creates a new plan database
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		week INTEGER NOT NULL,
		home_book TEXT NOT NULL DEFAULT '',
		home_odds INTEGER NOT NULL DEFAULT 0,
		home_stake REAL NOT NULL DEFAULT 0,
		away_book TEXT NOT NULL DEFAULT '',
		away_odds INTEGER NOT NULL DEFAULT 0,
		away_stake REAL NOT NULL DEFAULT 0,
		expected_profit REAL NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_game ON plans(home_team, away_team, week);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// AddPlan stores a plan, assigning its ID and creation time. Money fields
// are rounded to cents.
func (d *DB) AddPlan(ctx context.Context, p Plan) (Plan, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	p.HomeStake = cents(p.HomeStake)
	p.AwayStake = cents(p.AwayStake)
	p.ExpectedProfit = cents(p.ExpectedProfit)

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO plans (id, home_team, away_team, week, home_book, home_odds, home_stake,
			away_book, away_odds, away_stake, expected_profit, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.HomeTeam, p.AwayTeam, p.Week, p.HomeBook, int(p.HomeOdds), p.HomeStake,
		p.AwayBook, int(p.AwayOdds), p.AwayStake, p.ExpectedProfit, p.Note, p.CreatedAt)
	if err != nil {
		return Plan{}, fmt.Errorf("inserting plan: %w", err)
	}

	return p, nil
}

const selectPlan = `
	SELECT id, home_team, away_team, week, home_book, home_odds, home_stake,
		away_book, away_odds, away_stake, expected_profit, note, created_at
	FROM plans`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (Plan, error) {
	var p Plan
	var homeOdds, awayOdds int
	err := s.Scan(&p.ID, &p.HomeTeam, &p.AwayTeam, &p.Week, &p.HomeBook, &homeOdds, &p.HomeStake,
		&p.AwayBook, &awayOdds, &p.AwayStake, &p.ExpectedProfit, &p.Note, &p.CreatedAt)
	p.HomeOdds = odds.AmericanOdds(homeOdds)
	p.AwayOdds = odds.AmericanOdds(awayOdds)
	return p, err
}

// GetPlan retrieves a plan by ID
func (d *DB) GetPlan(ctx context.Context, id string) (*Plan, error) {
	row := d.db.QueryRowContext(ctx, selectPlan+` WHERE id = ?`, id)

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning plan: %w", err)
	}

	return &p, nil
}

// ListPlans retrieves all plans, newest first
func (d *DB) ListPlans(ctx context.Context) ([]Plan, error) {
	return d.queryPlans(ctx, selectPlan+` ORDER BY created_at DESC, id`)
}

// PlansForGame retrieves plans for a specific game
func (d *DB) PlansForGame(ctx context.Context, key market.Key) ([]Plan, error) {
	return d.queryPlans(ctx, selectPlan+`
		WHERE home_team = ? AND away_team = ? AND week = ?
		ORDER BY created_at DESC, id`, key.HomeTeam, key.AwayTeam, key.Week)
}

func (d *DB) queryPlans(ctx context.Context, query string, args ...any) ([]Plan, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}

// DeletePlan removes a plan
func (d *DB) DeletePlan(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
