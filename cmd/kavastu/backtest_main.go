package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Doxinos/kavastu-tracker/internal/backtest"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, uni, err := loadRun(cmd)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.OutputDir = out
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	funds, err := buildFundamentals(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One run-scoped cache: the source is hit once per ticker, every
	// rebalance reads truncated views of the cached series.
	horizon := cfg.EndDate()
	cache := marketdata.NewRunCache(provider, horizon)
	tickers := append(uni.Tickers(), cfg.Benchmark)
	cache.Prefetch(ctx, tickers, prefetchWorkers(cfg))

	runner := backtest.NewRunner(cfg, cache, funds, uni.Tickers())
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	dir, err := backtest.NewWriter(cfg.OutputDir).Write(res)
	if err != nil {
		return err
	}

	if cfg.Provider.Kind == "postgres" && cfg.Provider.DSN != "" {
		if store, err := marketdata.OpenPostgresStore(cfg.Provider.DSN, 10*time.Second); err == nil {
			sink := backtest.NewPGSink(store.DB())
			if err := sink.EnsureSchema(ctx); err == nil {
				if err := sink.Store(ctx, res); err != nil {
					log.Warn().Err(err).Msg("result sink store failed")
				}
			}
		}
	}

	p := res.Performance
	fmt.Printf("\nRun %s (%s)\n", res.RunID, res.Duration)
	fmt.Printf("  Final value:    %12.2f SEK\n", p.FinalValue)
	fmt.Printf("  Total return:   %11.2f%%  (price %.2f%%, dividends %.2f%%)\n", p.TotalReturnPct, p.PriceReturnPct, p.DividendReturnPct)
	fmt.Printf("  CAGR net:       %11.2f%%  (gross %.2f%%, tax drag %.2f%%)\n", p.CAGRNetPct, p.CAGRGrossPct, p.TaxDragPct)
	fmt.Printf("  Max drawdown:   %11.2f%%\n", p.MaxDrawdownPct)
	fmt.Printf("  Volatility:     %11.2f%%   Sharpe %.2f\n", p.VolatilityPct, p.Sharpe)
	fmt.Printf("  Benchmark:      %11.2f%%  (excess %+.2f%%)\n", p.BenchmarkReturnPct, p.ExcessReturnPct)
	fmt.Printf("  Artifacts:      %s\n", dir)
	return nil
}
