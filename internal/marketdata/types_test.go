package marketdata

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func bar(d time.Time, close float64) Bar {
	return Bar{Date: d, Open: close, High: close, Low: close, Close: close, Volume: 1000}
}

func daily(start time.Time, closes ...float64) Series {
	s := make(Series, len(closes))
	for i, c := range closes {
		s[i] = bar(start.AddDate(0, 0, i), c)
	}
	return s
}

func TestTruncateDropsFutureBars(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := daily(start, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	asOf := start.AddDate(0, 0, 4)
	got := s.Truncate(asOf)

	assert.Len(t, got, 5)
	for _, b := range got {
		assert.False(t, b.Date.After(asOf), "bar %s leaks past asOf", b.Date)
	}
}

func TestTruncateIncludesAsOfBar(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := daily(start, 1, 2, 3)
	got := s.Truncate(start.AddDate(0, 0, 2))
	assert.Len(t, got, 3)
}

func TestTruncateInvariantUnderFutureData(t *testing.T) {
	// Two histories identical up to asOf must truncate to the same view no
	// matter what happens after.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := daily(start, 100, 101, 102, 103, 104)
	b := daily(start, 100, 101, 102, 999, 1)

	asOf := start.AddDate(0, 0, 2)
	assert.Equal(t, a.Truncate(asOf), b.Truncate(asOf))
}

func TestLastClose(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3.0, daily(start, 1, 2, 3).LastClose())
	assert.True(t, math.IsNaN(Series{}.LastClose()))
}

func TestEmptyFundamentalsAllNaN(t *testing.T) {
	f := EmptyFundamentals()
	for name, v := range map[string]float64{
		"revenue_growth": f.RevenueGrowth,
		"profit_margin":  f.ProfitMargin,
		"roe":            f.ROE,
		"debt_to_equity": f.DebtToEquity,
		"dividend_yield": f.DividendYield,
		"pe_ratio":       f.PERatio,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v, want NaN", name, v)
		}
	}
	assert.False(t, f.PaysDividend)
}
