package main

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Doxinos/kavastu-tracker/internal/indicator"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
	"github.com/Doxinos/kavastu-tracker/internal/portfolio"
	"github.com/Doxinos/kavastu-tracker/internal/scoring"
)

const screenLookbackDays = 600

func runScreen(cmd *cobra.Command, _ []string) error {
	cfg, uni, err := loadRun(cmd)
	if err != nil {
		return err
	}
	topN, _ := cmd.Flags().GetInt("top")

	asOf := time.Now()
	if raw, _ := cmd.Flags().GetString("as-of"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid --as-of date %q: %w", raw, err)
		}
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	funds, err := buildFundamentals(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	bench, err := provider.History(ctx, cfg.Benchmark, asOf, screenLookbackDays)
	if err != nil {
		return fmt.Errorf("benchmark %s: %w", cfg.Benchmark, err)
	}
	benchCloses := bench.Closes()
	benchReturns := scoring.BenchmarkReturns{
		R4W: indicator.Return(benchCloses, 20),
		R3M: indicator.Return(benchCloses, 60),
		R6M: indicator.Return(benchCloses, 120),
	}

	scorer := scoring.New(cfg.Scoring)
	var records []scoring.Record
	for _, t := range uni.Tickers() {
		s, err := provider.History(ctx, t, asOf, screenLookbackDays)
		if err != nil || len(s) == 0 {
			continue
		}
		f := marketdata.EmptyFundamentals()
		if funds != nil && cfg.Scoring.IncludeFundamentals {
			if snap, err := funds.Fundamentals(ctx, t); err == nil {
				f = snap
			}
		}
		records = append(records, scorer.Score(t, s, benchReturns, f))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Score > records[j].Score })

	fmt.Printf("Screen as of %s (%d of %d with data)\n\n", asOf.Format("2006-01-02"), len(records), len(uni.Stocks))
	fmt.Printf("%-4s %-12s %7s %9s %8s %7s %6s %-8s %s\n",
		"#", "TICKER", "SCORE", "PRICE", "vsMA200", "RS3M", "RSI", "TREND", "FLAGS")
	for i, rec := range records {
		if i >= topN {
			break
		}
		fmt.Printf("%-4d %-12s %7.1f %9.2f %+7.1f%% %+6.1f %6s %-8s %s\n",
			i+1, rec.Ticker, rec.Score, rec.Price, rec.DistanceSlowMA,
			rec.RelStrength3M, fmtNaN(rec.RSI), rec.TrendingClass, flags(rec))
	}

	if held, _ := cmd.Flags().GetStringSlice("holdings"); len(held) > 0 {
		printRotation(held, records, cfg.MaxHoldings)
	}
	return nil
}

// Weak-holding thresholds for the advisory output: a screen score under 50
// or a close more than 5% below the slow MA flags the position.
const (
	weakMinScore      = 50.0
	weakMaxBelowMAPct = -5.0
)

func printRotation(held []string, records []scoring.Record, targetCount int) {
	rot := portfolio.CompareWithWatchlist(held, records, targetCount)

	fmt.Printf("\nRotation vs %d holdings (target %d)\n", len(held), targetCount)
	for _, rec := range rot.Sell {
		fmt.Printf("  SELL %-12s %6.1f  %s\n", rec.Ticker, rec.Score, rec.Reason)
	}
	for _, rec := range rot.Buy {
		fmt.Printf("  BUY  %-12s %6.1f  %s\n", rec.Ticker, rec.Score, rec.Reason)
	}
	for _, rec := range rot.Hold {
		fmt.Printf("  HOLD %-12s %6.1f  %s\n", rec.Ticker, rec.Score, rec.Reason)
	}

	weak := portfolio.DetectWeakHoldings(records, held, weakMinScore, weakMaxBelowMAPct)
	if len(weak) == 0 {
		return
	}
	fmt.Println("\nWeak holdings")
	for _, w := range weak {
		fmt.Printf("  %-12s %6.1f  %s\n", w.Ticker, w.Score, strings.Join(w.Alerts, "; "))
	}
}

func fmtNaN(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.0f", v)
}

func flags(rec scoring.Record) string {
	out := ""
	if rec.TripleAligned {
		out += "A"
	}
	if rec.SlowRising {
		out += "R"
	}
	if rec.DeathCross {
		out += "D"
	}
	return out
}
