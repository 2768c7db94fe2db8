package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Doxinos/kavastu-tracker/internal/config"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
	"github.com/Doxinos/kavastu-tracker/internal/regime"
)

func runRegime(cmd *cobra.Command, _ []string) error {
	cfg, uni, err := loadRun(cmd)
	if err != nil {
		return err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	asOf := time.Now()
	bench, err := provider.History(ctx, cfg.Benchmark, asOf, screenLookbackDays)
	if err != nil {
		return fmt.Errorf("benchmark %s: %w", cfg.Benchmark, err)
	}

	var cls regime.Classification
	if cfg.RegimeMode == config.RegimeMultiFactorDynamic {
		series := make(map[string]marketdata.Series, len(uni.Stocks))
		for _, t := range uni.Tickers() {
			if s, err := provider.History(ctx, t, asOf, screenLookbackDays); err == nil && len(s) > 0 {
				series[t] = s
			}
		}
		cls = regime.Dynamic(bench, series, cfg.Scoring.Windows)
	} else {
		cls = regime.Simple(bench, cfg.Scoring.Windows, cfg.MaxHoldings)
	}

	fmt.Printf("Regime as of %s\n\n", asOf.Format("2006-01-02"))
	fmt.Printf("  Regime:          %s\n", cls.Label)
	if cfg.RegimeMode == config.RegimeMultiFactorDynamic {
		fmt.Printf("  Score:           %.0f/100\n", cls.Score)
		fmt.Printf("  Breadth:         %.0f%% above slow MA\n", cls.BreadthPct)
		fmt.Printf("  Volatility pct:  %.0f\n", cls.VolatilityPct)
	}
	fmt.Printf("  Index vs MA:     %+.1f%%\n", cls.IndexVsSlowMA)
	fmt.Printf("  Target holdings: %d\n", cls.TargetHoldings)
	fmt.Printf("  %s\n", cls.Description)
	return nil
}
