package marketdata

import (
	"math"
	"time"
)

// Bar is one trading day of OHLCV data for a single ticker.
// Bars are immutable once fetched.
type Bar struct {
	Date   time.Time `json:"date" db:"date"`
	Open   float64   `json:"open" db:"open"`
	High   float64   `json:"high" db:"high"`
	Low    float64   `json:"low" db:"low"`
	Close  float64   `json:"close" db:"close"`
	Volume float64   `json:"volume" db:"volume"`
}

// Series is an ordered daily price series, ascending by date.
type Series []Bar

// Closes returns the closing prices in date order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// LastClose returns the most recent closing price, or NaN for an empty series.
func (s Series) LastClose() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1].Close
}

// Truncate returns the subseries with dates on or before asOf. The result
// shares backing storage with s; callers must not mutate bars.
func (s Series) Truncate(asOf time.Time) Series {
	n := len(s)
	for n > 0 && s[n-1].Date.After(asOf) {
		n--
	}
	return s[:n]
}

// Dividend is a sparse per-ticker dividend event.
type Dividend struct {
	ExDate time.Time `json:"ex_date" db:"ex_date"`
	Amount float64   `json:"amount" db:"amount"` // per share
}

// Fundamentals is a point-in-time snapshot of fundamental ratios.
// Ratio fields use NaN when the source has no value for them.
type Fundamentals struct {
	RevenueGrowth float64 `json:"revenue_growth" yaml:"revenue_growth"`
	ProfitMargin  float64 `json:"profit_margin" yaml:"profit_margin"`
	ROE           float64 `json:"roe" yaml:"roe"`
	DebtToEquity  float64 `json:"debt_to_equity" yaml:"debt_to_equity"`
	DividendYield float64 `json:"dividend_yield" yaml:"dividend_yield"`
	PERatio       float64 `json:"pe_ratio" yaml:"pe_ratio"`
	PaysDividend  bool    `json:"pays_dividend" yaml:"pays_dividend"`
}

// EmptyFundamentals returns a snapshot with every ratio undefined.
func EmptyFundamentals() Fundamentals {
	nan := math.NaN()
	return Fundamentals{
		RevenueGrowth: nan,
		ProfitMargin:  nan,
		ROE:           nan,
		DebtToEquity:  nan,
		DividendYield: nan,
		PERatio:       nan,
	}
}
