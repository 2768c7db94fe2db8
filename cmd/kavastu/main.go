package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "kavastu"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Rule-based momentum screening and backtesting for Swedish equities",
		Version: version,
		Long: `kavastu screens a fixed universe of Stockholm-listed stocks with a
moving-average momentum model, classifies the market regime, and
simulates the rotation strategy over history inside an ISK tax wrapper.`,
	}
	rootCmd.PersistentFlags().String("config", "config/backtest.yaml", "Run configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Simulate the rotation strategy over history",
		Long:  "Runs the full rebalance loop between the configured dates and writes JSON artifacts per run.",
		RunE:  runBacktest,
	}
	backtestCmd.Flags().String("out", "", "Override artifact output directory")

	screenCmd := &cobra.Command{
		Use:   "screen",
		Short: "Score the universe as of today",
		Long:  "Computes the composite score and trending classification for every universe member and prints the ranked table.",
		RunE:  runScreen,
	}
	screenCmd.Flags().Int("top", 30, "Number of ranked rows to print")
	screenCmd.Flags().String("as-of", "", "Score as of this date (YYYY-MM-DD) instead of today")
	screenCmd.Flags().StringSlice("holdings", nil, "Currently held tickers; prints rotation advice and weak-holding alerts")

	regimeCmd := &cobra.Command{
		Use:   "regime",
		Short: "Classify the current market regime",
		RunE:  runRegime,
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local price database from the remote source",
		Long:  "Fetches bars and dividends for every universe member and upserts them into Postgres.",
		RunE:  runSync,
	}
	syncCmd.Flags().Int("days", 800, "Calendar days of history to fetch")

	rootCmd.AddCommand(backtestCmd, screenCmd, regimeCmd, syncCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setupLogging applies the --debug flag before any command body runs.
func setupLogging(cmd *cobra.Command) {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
