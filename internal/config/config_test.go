package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doxinos/kavastu-tracker/internal/portfolio"
)

func validConfig() Config {
	cfg := Default()
	cfg.Start = "2022-01-01"
	cfg.End = "2024-01-01"
	cfg.Tax = map[int]portfolio.TaxRule{
		2022: {Rate: 0.00375},
		2023: {Rate: 0.00882},
	}
	return cfg
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad start date", func(c *Config) { c.Start = "01/01/2022" }},
		{"end before start", func(c *Config) { c.End = "2021-01-01" }},
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"bad frequency", func(c *Config) { c.Frequency = "daily" }},
		{"negative cost rate", func(c *Config) { c.TransactionCostRate = -0.01 }},
		{"missing benchmark", func(c *Config) { c.Benchmark = "" }},
		{"bad regime mode", func(c *Config) { c.RegimeMode = "vibes" }},
		{"zero holdings for simple regime", func(c *Config) { c.MaxHoldings = 0 }},
		{"missing tax year", func(c *Config) { delete(c.Tax, 2023) }},
		{"tax rate out of range", func(c *Config) { c.Tax[2022] = portfolio.TaxRule{Rate: 1.5} }},
		{"negative free amount", func(c *Config) { c.Tax[2022] = portfolio.TaxRule{Rate: 0.01, FreeAmount: -1} }},
		{"broken sizing", func(c *Config) { c.Sizing.FixedPct = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTaxRuleNotRequiredBeyondRun(t *testing.T) {
	cfg := validConfig()
	// The run closes during 2023; no 2024 rule is needed.
	delete(cfg.Tax, 2024)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := `
start: 2021-06-01
end: 2022-06-01
initial_capital: 250000
rebalance_frequency: weekly
max_holdings: 40
tax:
  2021: {rate: 0.00375, free_amount: 0}
sizing:
  method: atr_adjusted
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250000.0, cfg.InitialCapital)
	assert.Equal(t, Weekly, cfg.Frequency)
	assert.Equal(t, 40, cfg.MaxHoldings)
	assert.Equal(t, portfolio.SizeATRAdjusted, cfg.Sizing.Method)
	// Untouched defaults survive.
	assert.Equal(t, 0.0025, cfg.TransactionCostRate)
	assert.Equal(t, "^OMX", cfg.Benchmark)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/run.yaml")
	assert.Error(t, err)
}

func TestDateAccessors(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2022, cfg.StartDate().Year())
	assert.Equal(t, 2024, cfg.EndDate().Year())
}
