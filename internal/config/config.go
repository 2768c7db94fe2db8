// Package config loads and validates backtest run configuration. All
// validation happens before the first rebalance: a misconfigured run fails
// fast, never mid-simulation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Doxinos/kavastu-tracker/internal/portfolio"
	"github.com/Doxinos/kavastu-tracker/internal/scoring"
)

// RegimeMode selects the regime classifier variant for a run. The two modes
// are mutually exclusive per run.
type RegimeMode string

const (
	RegimeSimpleBullBear     RegimeMode = "simple_bull_bear"
	RegimeMultiFactorDynamic RegimeMode = "multi_factor_dynamic"
)

// Frequency is the rebalance schedule.
type Frequency string

const (
	Monthly Frequency = "monthly" // first-of-month stepping
	Weekly  Frequency = "weekly"  // fixed 7-day stride
)

// ProviderConfig selects the market data source.
type ProviderConfig struct {
	Kind            string        `yaml:"kind"` // "http" or "postgres"
	BaseURL         string        `yaml:"base_url"`
	DSN             string        `yaml:"dsn"`
	RequestInterval time.Duration `yaml:"request_interval"`
	PrefetchWorkers int           `yaml:"prefetch_workers"`
}

// Config is the full backtest run configuration.
type Config struct {
	Start          string  `yaml:"start"` // YYYY-MM-DD
	End            string  `yaml:"end"`
	InitialCapital float64 `yaml:"initial_capital"`

	Frequency           Frequency `yaml:"rebalance_frequency"`
	TransactionCostRate float64   `yaml:"transaction_cost_rate"`

	Benchmark    string  `yaml:"benchmark"` // index ticker, e.g. ^OMX
	RiskFreeRate float64 `yaml:"risk_free_rate"`

	MaxHoldings int        `yaml:"max_holdings"` // bull target for the simple classifier
	RegimeMode  RegimeMode `yaml:"regime_mode"`

	Sizing  portfolio.SizingConfig      `yaml:"sizing"`
	Scoring scoring.Config              `yaml:"scoring"`
	Tax     map[int]portfolio.TaxRule   `yaml:"tax"` // keyed by calendar year

	// FundamentalsLookahead acknowledges that the fundamentals snapshot is
	// present-day even for historical scoring dates. Set scoring
	// include_fundamentals to false for a leak-free run.
	FundamentalsLookahead bool `yaml:"fundamentals_lookahead"`

	Provider         ProviderConfig `yaml:"provider"`
	UniverseFile     string         `yaml:"universe_file"`
	FundamentalsFile string         `yaml:"fundamentals_file"`
	OutputDir        string         `yaml:"output_dir"`
}

// Default returns a runnable configuration with the strategy defaults.
func Default() Config {
	return Config{
		Start:               "2020-01-01",
		End:                 "2026-01-01",
		InitialCapital:      100000,
		Frequency:           Monthly,
		TransactionCostRate: 0.0025,
		Benchmark:           "^OMX",
		RiskFreeRate:        0.02,
		MaxHoldings:         70,
		RegimeMode:          RegimeSimpleBullBear,
		Sizing:              portfolio.DefaultSizingConfig(),
		Scoring:             scoring.DefaultConfig(),
		OutputDir:           "./artifacts/backtest",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// StartDate and EndDate parse the configured date strings. Validate must
// have succeeded first.
func (c Config) StartDate() time.Time { t, _ := time.Parse("2006-01-02", c.Start); return t }
func (c Config) EndDate() time.Time   { t, _ := time.Parse("2006-01-02", c.End); return t }

// Validate checks the whole configuration and reports the first problem.
func (c Config) Validate() error {
	start, err := time.Parse("2006-01-02", c.Start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", c.Start, err)
	}
	end, err := time.Parse("2006-01-02", c.End)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", c.End, err)
	}
	if !end.After(start) {
		return fmt.Errorf("end date %s must be after start date %s", c.End, c.Start)
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %.2f", c.InitialCapital)
	}
	if c.Frequency != Monthly && c.Frequency != Weekly {
		return fmt.Errorf("rebalance_frequency must be %q or %q, got %q", Monthly, Weekly, c.Frequency)
	}
	if c.TransactionCostRate < 0 || c.TransactionCostRate >= 1 {
		return fmt.Errorf("transaction_cost_rate %.4f out of range [0, 1)", c.TransactionCostRate)
	}
	if c.Benchmark == "" {
		return fmt.Errorf("benchmark ticker is required")
	}
	switch c.RegimeMode {
	case RegimeSimpleBullBear:
		if c.MaxHoldings <= 0 {
			return fmt.Errorf("max_holdings must be positive for the simple regime")
		}
	case RegimeMultiFactorDynamic:
	default:
		return fmt.Errorf("regime_mode must be %q or %q, got %q", RegimeSimpleBullBear, RegimeMultiFactorDynamic, c.RegimeMode)
	}
	if err := c.Sizing.Validate(); err != nil {
		return fmt.Errorf("sizing: %w", err)
	}

	// Tax is assessed when the year rolls over, for the year just ended.
	// Every year the run can close must have a rule; missing policy is a
	// configuration error, not a runtime surprise.
	for year := start.Year(); year < end.Year(); year++ {
		rule, ok := c.Tax[year]
		if !ok {
			return fmt.Errorf("tax rule missing for year %d", year)
		}
		if rule.Rate < 0 || rule.Rate >= 1 {
			return fmt.Errorf("tax rate %.4f for year %d out of range [0, 1)", rule.Rate, year)
		}
		if rule.FreeAmount < 0 {
			return fmt.Errorf("tax free_amount for year %d must be non-negative", year)
		}
	}
	return nil
}

// TaxRuleFor returns the rule for a year. Validate guarantees presence for
// every year inside the run window.
func (c Config) TaxRuleFor(year int) (portfolio.TaxRule, bool) {
	rule, ok := c.Tax[year]
	return rule, ok
}
