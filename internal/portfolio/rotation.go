package portfolio

import (
	"fmt"
	"sort"

	"github.com/Doxinos/kavastu-tracker/internal/scoring"
)

// Recommendation is one suggested portfolio action from the weekly
// holdings-vs-watchlist comparison.
type Recommendation struct {
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"` // 1-based rank in the screen, 0 when unranked
	Reason string  `json:"reason"`
}

// Rotation groups the weekly recommendations: sell the names that lost
// momentum, buy from the top of the screen to fill open slots, hold the rest.
type Rotation struct {
	Sell []Recommendation `json:"sell"`
	Buy  []Recommendation `json:"buy"`
	Hold []Recommendation `json:"hold"`
}

// CompareWithWatchlist derives rotation recommendations for the held tickers
// against a ranked screen result. ranked must be sorted by score descending.
func CompareWithWatchlist(held []string, ranked []scoring.Record, targetCount int) Rotation {
	var rot Rotation

	rankOf := make(map[string]int, len(ranked))
	scoreOf := make(map[string]float64, len(ranked))
	for i, rec := range ranked {
		rankOf[rec.Ticker] = i + 1
		scoreOf[rec.Ticker] = rec.Score
	}

	topN := targetCount * 2
	if topN > len(ranked) {
		topN = len(ranked)
	}
	top := make(map[string]bool, topN)
	for _, rec := range ranked[:topN] {
		top[rec.Ticker] = true
	}

	heldSet := make(map[string]bool, len(held))
	for _, ticker := range held {
		heldSet[ticker] = true
		rank := rankOf[ticker]
		rec := Recommendation{Ticker: ticker, Score: scoreOf[ticker], Rank: rank}
		if top[ticker] {
			rec.Reason = fmt.Sprintf("Ranked #%d, still strong", rank)
			rot.Hold = append(rot.Hold, rec)
		} else {
			if rank == 0 {
				rec.Reason = "Fell off the screen, lost momentum"
			} else {
				rec.Reason = fmt.Sprintf("Dropped to rank #%d, lost momentum", rank)
			}
			rot.Sell = append(rot.Sell, rec)
		}
	}

	slots := targetCount - (len(held) - len(rot.Sell))
	for _, rec := range ranked {
		if slots <= 0 {
			break
		}
		if heldSet[rec.Ticker] {
			continue
		}
		rot.Buy = append(rot.Buy, Recommendation{
			Ticker: rec.Ticker,
			Score:  rec.Score,
			Rank:   rankOf[rec.Ticker],
			Reason: fmt.Sprintf("Strong momentum (rank #%d)", rankOf[rec.Ticker]),
		})
		slots--
	}

	sort.Slice(rot.Hold, func(i, j int) bool { return rot.Hold[i].Score > rot.Hold[j].Score })
	sort.Slice(rot.Sell, func(i, j int) bool { return rot.Sell[i].Score < rot.Sell[j].Score })
	return rot
}

// WeakHolding flags a held position whose screen metrics deteriorated.
type WeakHolding struct {
	Ticker string   `json:"ticker"`
	Score  float64  `json:"score"`
	Alerts []string `json:"alerts"`
}

// DetectWeakHoldings scans the held tickers' screen records for low scores,
// price below the slow MA, or a fresh death cross.
func DetectWeakHoldings(records []scoring.Record, held []string, minScore, maxDistBelowMA float64) []WeakHolding {
	byTicker := make(map[string]scoring.Record, len(records))
	for _, rec := range records {
		byTicker[rec.Ticker] = rec
	}

	var weak []WeakHolding
	for _, ticker := range held {
		rec, ok := byTicker[ticker]
		if !ok {
			continue
		}
		var alerts []string
		if rec.Score < minScore {
			alerts = append(alerts, fmt.Sprintf("Score dropped to %.1f", rec.Score))
		}
		if rec.DistanceSlowMA < maxDistBelowMA {
			alerts = append(alerts, fmt.Sprintf("%.1f%% below slow MA", -rec.DistanceSlowMA))
		}
		if rec.DeathCross {
			alerts = append(alerts, "Death cross detected")
		}
		if len(alerts) > 0 {
			weak = append(weak, WeakHolding{Ticker: ticker, Score: rec.Score, Alerts: alerts})
		}
	}
	return weak
}
