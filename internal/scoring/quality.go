package scoring

import (
	"math"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// QualityScore converts a fundamentals snapshot into the 0-25 point quality
// component. Each sub-score is a step function over fixed thresholds; an
// undefined ratio simply contributes nothing.
//
// Revenue growth 0-8, profit margin 0-6, ROE 0-6, dividend payer +3,
// low debt +2. Ratios are decimals (0.15 = 15%); debt/equity is in percent
// as delivered by the fundamentals source.
func QualityScore(f marketdata.Fundamentals) float64 {
	var score float64

	if !math.IsNaN(f.RevenueGrowth) {
		switch {
		case f.RevenueGrowth > 0.15:
			score += 8
		case f.RevenueGrowth > 0.10:
			score += 6
		case f.RevenueGrowth > 0.05:
			score += 4
		case f.RevenueGrowth > 0:
			score += 2
		}
	}

	if !math.IsNaN(f.ProfitMargin) {
		switch {
		case f.ProfitMargin > 0.15:
			score += 6
		case f.ProfitMargin > 0.10:
			score += 4
		case f.ProfitMargin > 0.05:
			score += 2
		}
	}

	if !math.IsNaN(f.ROE) {
		switch {
		case f.ROE > 0.20:
			score += 6
		case f.ROE > 0.15:
			score += 4
		case f.ROE > 0.10:
			score += 2
		}
	}

	if f.PaysDividend {
		score += 3
	}

	if !math.IsNaN(f.DebtToEquity) {
		switch {
		case f.DebtToEquity < 100:
			score += 2
		case f.DebtToEquity < 200:
			score += 1
		}
	}

	return score
}
