package scoring

import (
	"math"
	"testing"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

func TestQualityScore(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		f    marketdata.Fundamentals
		want float64
	}{
		{
			name: "all undefined",
			f:    marketdata.EmptyFundamentals(),
			want: 0,
		},
		{
			name: "maximum quality",
			f: marketdata.Fundamentals{
				RevenueGrowth: 0.20, ProfitMargin: 0.20, ROE: 0.25,
				DebtToEquity: 50, PaysDividend: true,
				DividendYield: 0.03, PERatio: 15,
			},
			want: 25,
		},
		{
			name: "middle tiers",
			f: marketdata.Fundamentals{
				RevenueGrowth: 0.12, ProfitMargin: 0.12, ROE: 0.17,
				DebtToEquity: 150, PaysDividend: true,
				DividendYield: nan, PERatio: nan,
			},
			want: 6 + 4 + 4 + 3 + 1,
		},
		{
			name: "low growth no dividend",
			f: marketdata.Fundamentals{
				RevenueGrowth: 0.03, ProfitMargin: 0.04, ROE: 0.08,
				DebtToEquity: 250, PaysDividend: false,
				DividendYield: nan, PERatio: nan,
			},
			want: 2,
		},
		{
			name: "negative growth scores nothing",
			f: marketdata.Fundamentals{
				RevenueGrowth: -0.05, ProfitMargin: nan, ROE: nan,
				DebtToEquity: nan, PaysDividend: false,
				DividendYield: nan, PERatio: nan,
			},
			want: 0,
		},
		{
			name: "dividend alone",
			f: marketdata.Fundamentals{
				RevenueGrowth: nan, ProfitMargin: nan, ROE: nan,
				DebtToEquity: nan, PaysDividend: true,
				DividendYield: 0.04, PERatio: nan,
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualityScore(tt.f); got != tt.want {
				t.Errorf("QualityScore = %v, want %v", got, tt.want)
			}
		})
	}
}
