package marketdata

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFundamentals is the YAML shape: pointer fields distinguish "absent"
// from zero so missing ratios stay NaN after load.
type fileFundamentals struct {
	RevenueGrowth *float64 `yaml:"revenue_growth"`
	ProfitMargin  *float64 `yaml:"profit_margin"`
	ROE           *float64 `yaml:"roe"`
	DebtToEquity  *float64 `yaml:"debt_to_equity"`
	DividendYield *float64 `yaml:"dividend_yield"`
	PERatio       *float64 `yaml:"pe_ratio"`
	PaysDividend  bool     `yaml:"pays_dividend"`
}

// FileFundamentals serves fundamentals snapshots from a YAML file keyed by
// ticker. Tickers absent from the file score zero quality rather than
// failing the screen.
type FileFundamentals struct {
	snapshots map[string]Fundamentals
}

// LoadFundamentals reads a fundamentals YAML file.
func LoadFundamentals(path string) (*FileFundamentals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fundamentals: %w", err)
	}
	var raw map[string]fileFundamentals
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fundamentals %s: %w", path, err)
	}
	f := &FileFundamentals{snapshots: make(map[string]Fundamentals, len(raw))}
	for ticker, entry := range raw {
		snap := EmptyFundamentals()
		snap.RevenueGrowth = deref(entry.RevenueGrowth)
		snap.ProfitMargin = deref(entry.ProfitMargin)
		snap.ROE = deref(entry.ROE)
		snap.DebtToEquity = deref(entry.DebtToEquity)
		snap.DividendYield = deref(entry.DividendYield)
		snap.PERatio = deref(entry.PERatio)
		snap.PaysDividend = entry.PaysDividend
		f.snapshots[ticker] = snap
	}
	return f, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Fundamentals implements FundamentalsProvider. Unknown tickers get the
// empty snapshot.
func (f *FileFundamentals) Fundamentals(_ context.Context, ticker string) (Fundamentals, error) {
	if snap, ok := f.snapshots[ticker]; ok {
		return snap, nil
	}
	return EmptyFundamentals(), nil
}
