// Package regime classifies overall market trend strength from the benchmark
// index, universe breadth and volatility, and maps the classification to a
// target portfolio size. Both classifiers are pure functions of their inputs;
// no state survives between calls.
package regime

import (
	"math"

	"github.com/Doxinos/kavastu-tracker/internal/indicator"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// Label identifies a market regime.
type Label string

const (
	// Simple classifier labels.
	Bull    Label = "BULL"
	Neutral Label = "NEUTRAL"
	Bear    Label = "BEAR"

	// Dynamic classifier adds the outer tiers.
	StrongBull Label = "STRONG_BULL"
	Panic      Label = "PANIC"
)

// Classification is the result of a regime assessment.
type Classification struct {
	Label          Label   `json:"regime"`
	Score          float64 `json:"regime_score"` // 0-100, dynamic classifier only
	TargetHoldings int     `json:"target_holdings"`
	IndexVsSlowMA  float64 `json:"index_vs_slow_ma"` // percent
	BreadthPct     float64 `json:"breadth_pct"`      // % of universe above its own slow MA
	VolatilityPct  float64 `json:"volatility_percentile"`
	Description    string  `json:"description"`
}

// Simple is the binary index-vs-slow-MA test. Insufficient index history
// yields NEUTRAL with a mid-sized target rather than an error.
func Simple(index marketdata.Series, w indicator.Windows, bullTarget int) Classification {
	c := Classification{Label: Neutral, TargetHoldings: 10, Description: "Insufficient index data"}

	if len(index) < w.Slow {
		return c
	}
	set := indicator.Compute(index, w)
	if !set.Ready() {
		return c
	}

	price := index.LastClose()
	slow := set.LastSlow()
	c.IndexVsSlowMA = (price - slow) / slow * 100

	if price > slow {
		c.Label = Bull
		c.TargetHoldings = bullTarget
		c.Description = "Index above slow MA, stay invested"
	} else {
		c.Label = Bear
		c.TargetHoldings = 5
		c.Description = "Index below slow MA, defensive"
	}
	return c
}

// Dynamic is the 5-tier scored model: index-vs-MA alignment (0-40), breadth
// (0-30) and inverse volatility percentile (0-30) sum to a 0-100 score that
// maps onto STRONG_BULL..PANIC with target holdings 80/60/40/20/5.
func Dynamic(index marketdata.Series, universe map[string]marketdata.Series, w indicator.Windows) Classification {
	var c Classification

	set := indicator.Compute(index, w)
	price := index.LastClose()
	slow := set.LastSlow()
	fast := set.LastFast()
	medium := set.LastMedium()

	// Factor 1: index position relative to its MAs (0-40).
	if !math.IsNaN(slow) && slow != 0 {
		c.IndexVsSlowMA = (price - slow) / slow * 100
		if price > slow {
			c.Score += 20
			if !math.IsNaN(fast) && !math.IsNaN(medium) {
				if fast > medium && medium > slow {
					c.Score += 20 // full triple alignment
				} else if fast > slow {
					c.Score += 10
				}
			}
		} else if c.IndexVsSlowMA > -5 {
			c.Score += 5 // just below, soften the penalty
		}
	}

	// Factor 2: breadth, the share of the universe above its own slow MA (0-30).
	above, total := 0, 0
	for _, s := range universe {
		iset := indicator.Compute(s, w)
		if !iset.Ready() {
			continue
		}
		total++
		if s.LastClose() > iset.LastSlow() {
			above++
		}
	}
	if total > 0 {
		c.BreadthPct = float64(above) / float64(total) * 100
	}
	switch {
	case c.BreadthPct > 70:
		c.Score += 30
	case c.BreadthPct > 50:
		c.Score += 20
	case c.BreadthPct > 30:
		c.Score += 10
	case c.BreadthPct > 15:
		c.Score += 5
	}

	// Factor 3: inverse volatility percentile (0-30), calm markets score high.
	c.VolatilityPct = indicator.VolatilityPercentile(set.ATR, 252)
	switch {
	case c.VolatilityPct < 30:
		c.Score += 30
	case c.VolatilityPct < 50:
		c.Score += 20
	case c.VolatilityPct < 70:
		c.Score += 10
	case c.VolatilityPct < 85:
		c.Score += 5
	}

	switch {
	case c.Score >= 75:
		c.Label = StrongBull
		c.TargetHoldings = 80
		c.Description = "Strong bull market, fully invested with maximum diversification"
	case c.Score >= 55:
		c.Label = Bull
		c.TargetHoldings = 60
		c.Description = "Bull market, mostly invested"
	case c.Score >= 35:
		c.Label = Neutral
		c.TargetHoldings = 40
		c.Description = "Neutral market, selective positioning"
	case c.Score >= 20:
		c.Label = Bear
		c.TargetHoldings = 20
		c.Description = "Bear market, defensive positioning"
	default:
		c.Label = Panic
		c.TargetHoldings = 5
		c.Description = "Panic, capital preservation"
	}
	return c
}
