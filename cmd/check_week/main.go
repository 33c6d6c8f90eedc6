package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cfb-odds-engine/internal/analysis"
	"cfb-odds-engine/internal/api"
	"cfb-odds-engine/internal/config"
	"cfb-odds-engine/internal/market"
	"cfb-odds-engine/internal/odds"
)

func main() {
	cfg := config.Load()

	year := flag.Int("year", cfg.SeasonYear, "season year")
	week := flag.Int("week", cfg.SeasonWeek, "week number")
	seasonType := flag.String("season-type", cfg.SeasonType, "regular or postseason")
	method := flag.String("method", cfg.FairMethod, "fair method: american_mean, probability_mean, logit_mean, devig_power, devig_multiplicative")
	stake := flag.Float64("stake", cfg.DefaultStake, "total stake for arbitrage splits and Kelly sizing")
	all := flag.Bool("all", false, "print every game, not only flagged ones")
	flag.Parse()

	if *stake <= 0 {
		fmt.Fprintf(os.Stderr, "-stake must be positive, got %v\n", *stake)
		os.Exit(2)
	}
	cfg.SeasonWeek = *week
	cfg.SeasonType = *seasonType
	cfg.FairMethod = *method
	cfg.DefaultStake = *stake
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	analysisCfg := cfg.Analysis()
	m := analysisCfg.FairMethod

	client := api.NewCFBDClient(cfg.CFBDAPIKey, cfg.CFBDBaseURL, cfg.RequestsPerMinute)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	games, err := client.GetLines(ctx, *year, *week, *seasonType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	markets := api.ToMarkets(games)
	fmt.Printf("%d %s week %d: %d games, fair=%s\n\n", *year, *seasonType, *week, len(markets), m)

	flagged := 0
	for _, mkt := range markets {
		a, err := analysis.AnalyzeMarket(mkt, analysisCfg)
		if err != nil {
			fmt.Printf("%s @ %s: %v\n", mkt.Key.AwayTeam, mkt.Key.HomeTeam, err)
			continue
		}
		opps := a.Opportunities(analysisCfg)
		arb := a.HasArbitrage(analysisCfg)
		if !*all && len(opps) == 0 && !arb {
			continue
		}
		flagged++

		fmt.Printf("%s @ %s (%d books)\n", mkt.Key.AwayTeam, mkt.Key.HomeTeam, a.BookCount)
		for _, q := range mkt.Quotes {
			fmt.Printf("  %-15s home=%-6s away=%-6s\n", q.Bookmaker,
				odds.FormatAmericanOdds(q.Price(market.Home)), odds.FormatAmericanOdds(q.Price(market.Away)))
		}
		if a.Lines.Spread != nil {
			fmt.Printf("  spread %+.1f (%d books)", *a.Lines.Spread, a.Lines.SpreadBooks)
			if a.SpreadWinProbability != nil {
				fmt.Printf(" -> home %s", odds.FormatPercent(*a.SpreadWinProbability))
			}
			fmt.Println()
		}
		for _, s := range []*analysis.SideEV{a.Home, a.Away} {
			if s == nil {
				continue
			}
			fmt.Printf("  %-4s best %s @ %s fair %s ev=%s kelly=%s\n", s.Side,
				odds.FormatAmericanOdds(s.BestOdds), s.Bookmaker,
				odds.FormatAmericanOdds(s.FairOdds), odds.FormatPercent(analysis.ClampEV(s.EV)),
				odds.FormatMoney(s.KellyBet))
		}
		if arb {
			fmt.Printf("  ARB %s @ %s + %s @ %s margin=%s\n",
				odds.FormatAmericanOdds(a.Arbitrage.HomeOdds), a.Arbitrage.HomeBook,
				odds.FormatAmericanOdds(a.Arbitrage.AwayOdds), a.Arbitrage.AwayBook,
				odds.FormatPercent(a.Arbitrage.MarginPercent))
			if a.Stakes != nil {
				fmt.Printf("      stake %s / %s profit %s\n",
					odds.FormatMoney(a.Stakes.StakeA), odds.FormatMoney(a.Stakes.StakeB),
					odds.FormatMoney(a.Stakes.Profit))
			}
		}
		fmt.Println()
	}

	fmt.Printf("%d of %d games flagged\n", flagged, len(markets))
}
