package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Doxinos/kavastu-tracker/internal/scoring"
)

func recs(pairs ...any) []scoring.Record {
	out := make([]scoring.Record, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, scoring.Record{Ticker: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}

func TestCompareWithWatchlist(t *testing.T) {
	screen := recs(
		"AAA", 120.0,
		"BBB", 110.0,
		"CCC", 100.0,
		"DDD", 90.0,
		"EEE", 80.0,
		"FFF", 70.0,
	)
	held := []string{"BBB", "ZZZ", "FFF"}

	rot := CompareWithWatchlist(held, screen, 2)

	// Top window is targetCount*2 = 4: BBB holds, FFF and the unranked ZZZ
	// go to sell.
	holdTickers := tickers(rot.Hold)
	assert.Equal(t, []string{"BBB"}, holdTickers)

	sellTickers := tickers(rot.Sell)
	assert.ElementsMatch(t, []string{"ZZZ", "FFF"}, sellTickers)
	assert.Equal(t, "ZZZ", rot.Sell[0].Ticker, "sells sorted worst first")

	// Two sells leave one survivor against target 2: one buy slot, filled
	// from the top of the screen.
	assert.Equal(t, []string{"AAA"}, tickers(rot.Buy))
	assert.Equal(t, 1, rot.Buy[0].Rank)
}

func TestCompareWithWatchlistNoHoldings(t *testing.T) {
	screen := recs("AAA", 120.0, "BBB", 110.0, "CCC", 100.0)
	rot := CompareWithWatchlist(nil, screen, 2)

	assert.Empty(t, rot.Sell)
	assert.Empty(t, rot.Hold)
	assert.Equal(t, []string{"AAA", "BBB"}, tickers(rot.Buy))
}

func TestCompareWithWatchlistFullPortfolioNoBuys(t *testing.T) {
	screen := recs("AAA", 120.0, "BBB", 110.0, "CCC", 100.0, "DDD", 90.0)
	rot := CompareWithWatchlist([]string{"AAA", "BBB"}, screen, 2)

	assert.Empty(t, rot.Sell)
	assert.Len(t, rot.Hold, 2)
	assert.Empty(t, rot.Buy, "no open slots when every holding stays")
}

func TestDetectWeakHoldings(t *testing.T) {
	records := []scoring.Record{
		{Ticker: "OK", Score: 80, DistanceSlowMA: 5},
		{Ticker: "LOW", Score: 20, DistanceSlowMA: 2},
		{Ticker: "UNDER", Score: 60, DistanceSlowMA: -8},
		{Ticker: "CROSS", Score: 55, DistanceSlowMA: 3, DeathCross: true},
	}
	held := []string{"OK", "LOW", "UNDER", "CROSS", "NODATA"}

	weak := DetectWeakHoldings(records, held, 40, -5)

	byTicker := map[string][]string{}
	for _, w := range weak {
		byTicker[w.Ticker] = w.Alerts
	}
	assert.NotContains(t, byTicker, "OK")
	assert.NotContains(t, byTicker, "NODATA")
	assert.Contains(t, byTicker["LOW"][0], "Score dropped")
	assert.Contains(t, byTicker["UNDER"][0], "below slow MA")
	assert.Contains(t, byTicker["CROSS"][0], "Death cross")
}

func tickers(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Ticker
	}
	return out
}
