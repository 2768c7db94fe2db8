package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Doxinos/kavastu-tracker/internal/indicator"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

func series(n int, close func(i int) float64) marketdata.Series {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	s := make(marketdata.Series, n)
	for i := range s {
		c := close(i)
		s[i] = marketdata.Bar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}
	return s
}

func rising(n int) marketdata.Series {
	return series(n, func(i int) float64 { return 100 + float64(i)*0.5 })
}

func falling(n int) marketdata.Series {
	return series(n, func(i int) float64 { return 300 - float64(i)*0.5 })
}

func TestSimpleBull(t *testing.T) {
	c := Simple(rising(300), indicator.DefaultWindows(), 70)
	assert.Equal(t, Bull, c.Label)
	assert.Equal(t, 70, c.TargetHoldings)
	assert.Greater(t, c.IndexVsSlowMA, 0.0)
}

func TestSimpleBear(t *testing.T) {
	c := Simple(falling(300), indicator.DefaultWindows(), 70)
	assert.Equal(t, Bear, c.Label)
	assert.Equal(t, 5, c.TargetHoldings)
	assert.Less(t, c.IndexVsSlowMA, 0.0)
}

func TestSimpleInsufficientData(t *testing.T) {
	c := Simple(rising(50), indicator.DefaultWindows(), 70)
	assert.Equal(t, Neutral, c.Label)
	assert.Equal(t, 10, c.TargetHoldings)
	assert.Equal(t, "Insufficient index data", c.Description)
}

func TestDynamicStrongBull(t *testing.T) {
	universe := map[string]marketdata.Series{
		"A": rising(300), "B": rising(300), "C": rising(300), "D": rising(300),
	}
	c := Dynamic(rising(300), universe, indicator.DefaultWindows())

	assert.Equal(t, StrongBull, c.Label)
	assert.Equal(t, 80, c.TargetHoldings)
	assert.Equal(t, 100.0, c.BreadthPct, "every member trades above its slow MA")
	assert.GreaterOrEqual(t, c.Score, 75.0)
}

func TestDynamicPanic(t *testing.T) {
	universe := map[string]marketdata.Series{
		"A": falling(300), "B": falling(300), "C": falling(300),
	}
	c := Dynamic(falling(300), universe, indicator.DefaultWindows())

	assert.Equal(t, 0.0, c.BreadthPct)
	assert.LessOrEqual(t, c.Score, 34.0)
	assert.Contains(t, []Label{Bear, Panic}, c.Label)
	assert.LessOrEqual(t, c.TargetHoldings, 20)
}

func TestDynamicBreadthCountsOnlyReadyMembers(t *testing.T) {
	universe := map[string]marketdata.Series{
		"READY": rising(300),
		"THIN":  rising(50), // too short for a slow MA, must not dilute breadth
	}
	c := Dynamic(rising(300), universe, indicator.DefaultWindows())
	assert.Equal(t, 100.0, c.BreadthPct)
}
