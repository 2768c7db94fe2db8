package backtest

import (
	"math"
	"time"

	"github.com/Doxinos/kavastu-tracker/internal/config"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// Performance summarizes a completed run. Percentages are expressed as
// percent, not fractions.
type Performance struct {
	FinalValue     float64 `json:"final_value"`
	TotalDividends float64 `json:"total_dividends"`
	TotalTax       float64 `json:"total_tax"`

	TotalReturnPct    float64 `json:"total_return_pct"`
	PriceReturnPct    float64 `json:"price_return_pct"`
	DividendReturnPct float64 `json:"dividend_return_pct"`

	CAGRNetPct   float64 `json:"cagr_net_pct"`
	CAGRGrossPct float64 `json:"cagr_gross_pct"` // as if no tax had been paid
	TaxDragPct   float64 `json:"tax_drag_pct"`   // gross minus net, per year
	PriceCAGRPct float64 `json:"price_cagr_pct"` // excluding dividends

	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	VolatilityPct  float64 `json:"volatility_pct"` // annualized
	Sharpe         float64 `json:"sharpe"`

	BenchmarkReturnPct float64 `json:"benchmark_return_pct"`
	BenchmarkCAGRPct   float64 `json:"benchmark_cagr_pct"`
	ExcessReturnPct    float64 `json:"excess_return_pct"`

	Years int `json:"-"`
}

// Analyze computes run performance from the equity curve. An empty curve
// yields a zero Performance.
func Analyze(curve []EquityPoint, initialCapital, totalDividends, totalTax, riskFreeRate float64, freq config.Frequency) Performance {
	p := Performance{TotalDividends: totalDividends, TotalTax: totalTax}
	if len(curve) == 0 || initialCapital <= 0 {
		return p
	}

	final := curve[len(curve)-1].TotalValue
	p.FinalValue = final
	p.TotalReturnPct = (final - initialCapital) / initialCapital * 100
	p.DividendReturnPct = totalDividends / initialCapital * 100
	p.PriceReturnPct = p.TotalReturnPct - p.DividendReturnPct

	years := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24 / 365.25
	if years > 0 {
		p.CAGRNetPct = (math.Pow(final/initialCapital, 1/years) - 1) * 100
		if gross := final + totalTax; gross > 0 {
			p.CAGRGrossPct = (math.Pow(gross/initialCapital, 1/years) - 1) * 100
		}
		p.TaxDragPct = p.CAGRGrossPct - p.CAGRNetPct
		if pricified := final - totalDividends; pricified > 0 {
			p.PriceCAGRPct = (math.Pow(pricified/initialCapital, 1/years) - 1) * 100
		}
	}

	p.MaxDrawdownPct = maxDrawdown(curve)
	p.VolatilityPct = annualizedVolatility(curve, freq)
	if p.VolatilityPct > 0 {
		p.Sharpe = (p.CAGRNetPct/100 - riskFreeRate) / (p.VolatilityPct / 100)
	}
	return p
}

// WithBenchmark fills the buy-and-hold comparison from the benchmark series
// covering the run window.
func (p Performance) WithBenchmark(bench marketdata.Series, start, end time.Time) Performance {
	window := bench.Truncate(end)
	var first, last float64
	for _, b := range window {
		if b.Date.Before(start) {
			continue
		}
		if first == 0 {
			first = b.Close
		}
		last = b.Close
	}
	if first <= 0 || last <= 0 {
		return p
	}
	p.BenchmarkReturnPct = (last - first) / first * 100
	years := end.Sub(start).Hours() / 24 / 365.25
	if years > 0 {
		p.BenchmarkCAGRPct = (math.Pow(last/first, 1/years) - 1) * 100
	}
	p.ExcessReturnPct = p.TotalReturnPct - p.BenchmarkReturnPct
	return p
}

// maxDrawdown walks the curve tracking the running peak.
func maxDrawdown(curve []EquityPoint) float64 {
	peak, worst := 0.0, 0.0
	for _, pt := range curve {
		if pt.TotalValue > peak {
			peak = pt.TotalValue
		}
		if peak > 0 {
			dd := (peak - pt.TotalValue) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// annualizedVolatility is the standard deviation of period returns scaled by
// the square root of periods per year.
func annualizedVolatility(curve []EquityPoint, freq config.Frequency) float64 {
	if len(curve) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalValue
		if prev <= 0 {
			continue
		}
		returns = append(returns, (curve[i].TotalValue-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance) * math.Sqrt(PeriodsPerYear(freq)) * 100
}
