package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Doxinos/kavastu-tracker/internal/config"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
	"github.com/Doxinos/kavastu-tracker/internal/universe"
)

// loadRun loads and validates the run configuration plus the universe file.
func loadRun(cmd *cobra.Command) (config.Config, *universe.Universe, error) {
	setupLogging(cmd)

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.UniverseFile == "" {
		return cfg, nil, fmt.Errorf("config %s: universe_file is required", path)
	}
	uni, err := universe.Load(cfg.UniverseFile)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, uni, nil
}

// buildProvider constructs the configured market data source.
func buildProvider(cfg config.Config) (marketdata.Provider, error) {
	switch cfg.Provider.Kind {
	case "postgres":
		store, err := marketdata.OpenPostgresStore(cfg.Provider.DSN, 10*time.Second)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "http", "":
		httpCfg := marketdata.DefaultHTTPConfig(cfg.Provider.BaseURL)
		if cfg.Provider.RequestInterval > 0 {
			httpCfg.RequestInterval = cfg.Provider.RequestInterval
		}
		return marketdata.NewHTTPProvider(httpCfg), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

// buildFundamentals returns the configured fundamentals source, or nil when
// none is configured.
func buildFundamentals(cfg config.Config) (marketdata.FundamentalsProvider, error) {
	if cfg.FundamentalsFile == "" {
		return nil, nil
	}
	return marketdata.LoadFundamentals(cfg.FundamentalsFile)
}

// prefetchWorkers resolves the configured parallelism with a sane default.
func prefetchWorkers(cfg config.Config) int {
	if cfg.Provider.PrefetchWorkers > 0 {
		return cfg.Provider.PrefetchWorkers
	}
	return 4
}
