package marketdata

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNoData is returned when a provider has no history for a ticker.
var ErrNoData = errors.New("marketdata: no data for ticker")

// Provider supplies historical price and dividend series.
//
// History must honor the no-lookahead contract: the returned series contains
// no bar dated after asOf, regardless of how much newer data the underlying
// source holds. Violating this corrupts every downstream backtest metric.
type Provider interface {
	History(ctx context.Context, ticker string, asOf time.Time, lookbackDays int) (Series, error)
	Dividends(ctx context.Context, ticker string, from, to time.Time) ([]Dividend, error)
}

// FundamentalsProvider supplies a present-day fundamentals snapshot.
// It does not restate fundamentals point-in-time; backtests using it for
// historical dates accept a known lookahead approximation.
type FundamentalsProvider interface {
	Fundamentals(ctx context.Context, ticker string) (Fundamentals, error)
}

// MemoryProvider serves pre-loaded series, truncated per request. It is the
// fixture provider used by tests and offline runs.
type MemoryProvider struct {
	bars      map[string]Series
	dividends map[string][]Dividend
	funds     map[string]Fundamentals
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		bars:      make(map[string]Series),
		dividends: make(map[string][]Dividend),
		funds:     make(map[string]Fundamentals),
	}
}

// SetBars replaces the full history for ticker. Bars are sorted by date.
func (m *MemoryProvider) SetBars(ticker string, bars Series) {
	cp := make(Series, len(bars))
	copy(cp, bars)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Date.Before(cp[j].Date) })
	m.bars[ticker] = cp
}

func (m *MemoryProvider) SetDividends(ticker string, divs []Dividend) {
	cp := make([]Dividend, len(divs))
	copy(cp, divs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].ExDate.Before(cp[j].ExDate) })
	m.dividends[ticker] = cp
}

func (m *MemoryProvider) SetFundamentals(ticker string, f Fundamentals) {
	m.funds[ticker] = f
}

func (m *MemoryProvider) History(_ context.Context, ticker string, asOf time.Time, lookbackDays int) (Series, error) {
	full, ok := m.bars[ticker]
	if !ok {
		return nil, ErrNoData
	}
	s := full.Truncate(asOf)
	if lookbackDays > 0 {
		cutoff := asOf.AddDate(0, 0, -lookbackDays)
		i := 0
		for i < len(s) && s[i].Date.Before(cutoff) {
			i++
		}
		s = s[i:]
	}
	return s, nil
}

func (m *MemoryProvider) Dividends(_ context.Context, ticker string, from, to time.Time) ([]Dividend, error) {
	var out []Dividend
	for _, d := range m.dividends[ticker] {
		if d.ExDate.After(from) && !d.ExDate.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryProvider) Fundamentals(_ context.Context, ticker string) (Fundamentals, error) {
	f, ok := m.funds[ticker]
	if !ok {
		return EmptyFundamentals(), nil
	}
	return f, nil
}
