// Package universe loads the tradable stock list from a YAML file. The
// universe is fixed for a run; membership changes are a data-maintenance
// task, not a runtime concern.
package universe

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// CapBucket is a coarse market-capitalization class used for reporting and
// optional filtering.
type CapBucket string

const (
	LargeCap CapBucket = "large"
	MidCap   CapBucket = "mid"
	SmallCap CapBucket = "small"
)

// Stock is one universe member.
type Stock struct {
	Ticker string    `yaml:"ticker" json:"ticker"`
	Name   string    `yaml:"name" json:"name"`
	Sector string    `yaml:"sector" json:"sector"`
	Cap    CapBucket `yaml:"cap" json:"cap"`
}

// Universe is the loaded stock list plus the benchmark index ticker.
type Universe struct {
	Benchmark string  `yaml:"benchmark"`
	Stocks    []Stock `yaml:"stocks"`
}

// Load reads a universe file and validates it.
func Load(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse universe %s: %w", path, err)
	}
	if err := u.validate(); err != nil {
		return nil, fmt.Errorf("universe %s: %w", path, err)
	}
	return &u, nil
}

func (u *Universe) validate() error {
	if len(u.Stocks) == 0 {
		return fmt.Errorf("no stocks defined")
	}
	seen := make(map[string]bool, len(u.Stocks))
	for i, s := range u.Stocks {
		if s.Ticker == "" {
			return fmt.Errorf("stock %d has no ticker", i)
		}
		if seen[s.Ticker] {
			return fmt.Errorf("duplicate ticker %s", s.Ticker)
		}
		seen[s.Ticker] = true
	}
	return nil
}

// Tickers returns all member tickers in sorted order.
func (u *Universe) Tickers() []string {
	out := make([]string, 0, len(u.Stocks))
	for _, s := range u.Stocks {
		out = append(out, s.Ticker)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the stock record for a ticker.
func (u *Universe) Lookup(ticker string) (Stock, bool) {
	for _, s := range u.Stocks {
		if s.Ticker == ticker {
			return s, true
		}
	}
	return Stock{}, false
}

// BySector groups member tickers by sector, for breadth-style reporting.
func (u *Universe) BySector() map[string][]string {
	out := make(map[string][]string)
	for _, s := range u.Stocks {
		out[s.Sector] = append(out[s.Sector], s.Ticker)
	}
	for _, tickers := range out {
		sort.Strings(tickers)
	}
	return out
}
