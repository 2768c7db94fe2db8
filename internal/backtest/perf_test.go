package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Doxinos/kavastu-tracker/internal/config"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

func curve(points ...float64) []EquityPoint {
	start := d(2020, 1, 1)
	out := make([]EquityPoint, len(points))
	for i, v := range points {
		out[i] = EquityPoint{Date: start.AddDate(0, i, 0), TotalValue: v}
	}
	return out
}

func TestAnalyzeReturns(t *testing.T) {
	pts := []EquityPoint{
		{Date: d(2020, 1, 1), TotalValue: 100000},
		{Date: d(2021, 1, 1), TotalValue: 110000},
	}
	p := Analyze(pts, 100000, 2000, 500, 0.0, config.Monthly)

	assert.InDelta(t, 10.0, p.TotalReturnPct, 1e-9)
	assert.InDelta(t, 2.0, p.DividendReturnPct, 1e-9)
	assert.InDelta(t, 8.0, p.PriceReturnPct, 1e-9)
	assert.InDelta(t, 10.0, p.CAGRNetPct, 0.05, "one year, CAGR tracks total return")
	assert.Greater(t, p.CAGRGrossPct, p.CAGRNetPct, "tax-free counterfactual compounds higher")
	assert.InDelta(t, p.CAGRGrossPct-p.CAGRNetPct, p.TaxDragPct, 1e-9)
	assert.Equal(t, 110000.0, p.FinalValue)
}

func TestAnalyzeEmptyCurve(t *testing.T) {
	p := Analyze(nil, 100000, 0, 0, 0.02, config.Monthly)
	assert.Equal(t, 0.0, p.TotalReturnPct)
	assert.Equal(t, 0.0, p.Sharpe)
}

func TestMaxDrawdown(t *testing.T) {
	p := Analyze(curve(100000, 120000, 90000, 110000), 100000, 0, 0, 0, config.Monthly)
	assert.InDelta(t, 25.0, p.MaxDrawdownPct, 1e-9, "peak 120k to trough 90k")
}

func TestMaxDrawdownMonotonicCurve(t *testing.T) {
	p := Analyze(curve(100000, 105000, 110000, 116000), 100000, 0, 0, 0, config.Monthly)
	assert.Equal(t, 0.0, p.MaxDrawdownPct)
}

func TestVolatilityAnnualization(t *testing.T) {
	// Same period returns annualize differently per frequency.
	pts := curve(100000, 102000, 99000, 103000, 101000, 104000)
	monthly := Analyze(pts, 100000, 0, 0, 0, config.Monthly)
	weekly := Analyze(pts, 100000, 0, 0, 0, config.Weekly)

	assert.Greater(t, monthly.VolatilityPct, 0.0)
	assert.InDelta(t, monthly.VolatilityPct*2.0816659994661326, weekly.VolatilityPct, 1e-6, "sqrt(52/12) ratio")
}

func TestSharpeUsesRiskFreeRate(t *testing.T) {
	pts := []EquityPoint{
		{Date: d(2020, 1, 1), TotalValue: 100000},
		{Date: d(2020, 7, 1), TotalValue: 104000},
		{Date: d(2021, 1, 1), TotalValue: 110000},
	}
	rich := Analyze(pts, 100000, 0, 0, 0.00, config.Monthly)
	taxed := Analyze(pts, 100000, 0, 0, 0.05, config.Monthly)
	assert.Greater(t, rich.Sharpe, taxed.Sharpe)
}

func TestWithBenchmark(t *testing.T) {
	start := d(2020, 1, 1)
	bench := make(marketdata.Series, 400)
	for i := range bench {
		bench[i] = marketdata.Bar{Date: start.AddDate(0, 0, i-20), Close: 100 + float64(i)*0.05}
	}

	p := Performance{TotalReturnPct: 30}
	p = p.WithBenchmark(bench, start, start.AddDate(1, 0, 0))

	assert.Greater(t, p.BenchmarkReturnPct, 0.0)
	assert.InDelta(t, p.TotalReturnPct-p.BenchmarkReturnPct, p.ExcessReturnPct, 1e-9)
	assert.Greater(t, p.BenchmarkCAGRPct, 0.0)
}
