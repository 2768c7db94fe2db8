package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// runSync pulls bars and dividends from the HTTP source and upserts them
// into the local Postgres store, so backtests can run offline.
func runSync(cmd *cobra.Command, _ []string) error {
	cfg, uni, err := loadRun(cmd)
	if err != nil {
		return err
	}
	if cfg.Provider.DSN == "" {
		return fmt.Errorf("sync requires provider.dsn in the config")
	}
	days, _ := cmd.Flags().GetInt("days")

	httpCfg := marketdata.DefaultHTTPConfig(cfg.Provider.BaseURL)
	if cfg.Provider.RequestInterval > 0 {
		httpCfg.RequestInterval = cfg.Provider.RequestInterval
	}
	source := marketdata.NewHTTPProvider(httpCfg)

	store, err := marketdata.OpenPostgresStore(cfg.Provider.DSN, 30*time.Second)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	now := time.Now()
	from := now.AddDate(0, 0, -days)
	tickers := append(uni.Tickers(), cfg.Benchmark)

	var synced, failed int
	for _, t := range tickers {
		bars, err := source.History(ctx, t, now, days)
		if err != nil {
			log.Warn().Err(err).Str("ticker", t).Msg("history fetch failed")
			failed++
			continue
		}
		if err := store.UpsertBars(ctx, t, bars); err != nil {
			return fmt.Errorf("upsert bars %s: %w", t, err)
		}
		if divs, err := source.Dividends(ctx, t, from, now); err == nil && len(divs) > 0 {
			if err := store.UpsertDividends(ctx, t, divs); err != nil {
				return fmt.Errorf("upsert dividends %s: %w", t, err)
			}
		}
		synced++
		log.Debug().Str("ticker", t).Int("bars", len(bars)).Msg("synced")
	}

	log.Info().Int("synced", synced).Int("failed", failed).Msg("sync complete")
	fmt.Printf("Synced %d of %d tickers (%d failed)\n", synced, len(tickers), failed)
	return nil
}
