package scoring

import (
	"fmt"
	"strings"

	"github.com/Doxinos/kavastu-tracker/internal/indicator"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// Trending classifies short-term momentum.
type Trending string

const (
	TrendingHot     Trending = "HOT"
	TrendingNeutral Trending = "NEUTRAL"
	TrendingCold    Trending = "COLD"
)

// TrendingResult is the momentum-only score on its own 0-100 scale. It is
// computed independently of the composite score and the two are never
// combined.
type TrendingResult struct {
	Ticker         string   `json:"ticker"`
	Score          float64  `json:"trending_score"`
	Classification Trending `json:"classification"`
	Return4W       float64  `json:"return_4w"`
	RSvsBenchmark  float64  `json:"rs_vs_benchmark"`
	VolumeTrend    float64  `json:"volume_trend"`
	Acceleration   float64  `json:"acceleration"`
	Reason         string   `json:"reason"`
}

// TrendingScore computes the 0-100 momentum score: 4-week return (40),
// relative strength vs benchmark (30), volume trend (15), acceleration (15).
// Classification: >=75 HOT, <=25 COLD, else NEUTRAL.
func TrendingScore(ticker string, series marketdata.Series, bench BenchmarkReturns) TrendingResult {
	res := TrendingResult{Ticker: ticker, Classification: TrendingNeutral}

	// ~12 weeks of bars needed for the volume baseline.
	if len(series) < 60 {
		res.Reason = "Insufficient data"
		return res
	}
	closes := series.Closes()

	// 4-week return, 40 points.
	res.Return4W = indicator.Return(closes, 20)
	switch {
	case res.Return4W > 15:
		res.Score += 40
	case res.Return4W > 10:
		res.Score += 30
	case res.Return4W > 5:
		res.Score += 20
	case res.Return4W > -5:
		res.Score += 10
	case res.Return4W > -10:
		res.Score += 5
	}

	// Relative strength vs benchmark over the same window, 30 points.
	res.RSvsBenchmark = res.Return4W - bench.R4W
	switch {
	case res.RSvsBenchmark > 10:
		res.Score += 30
	case res.RSvsBenchmark > 5:
		res.Score += 20
	case res.RSvsBenchmark > 0:
		res.Score += 10
	}

	// Volume trend: recent 4-week average vs 12-week average, 15 points.
	recentVol := meanVolume(series[len(series)-20:])
	baseVol := meanVolume(series[len(series)-60:])
	if baseVol > 0 {
		res.VolumeTrend = (recentVol - baseVol) / baseVol * 100
		switch {
		case res.VolumeTrend > 50:
			res.Score += 15
		case res.VolumeTrend > 25:
			res.Score += 10
		case res.VolumeTrend > 0:
			res.Score += 5
		}
	}

	// Acceleration: 2-week return vs half the 4-week return, 15 points.
	return2W := indicator.Return(closes, 10)
	res.Acceleration = return2W - res.Return4W*0.5
	switch {
	case res.Acceleration > 2:
		res.Score += 15
	case res.Acceleration > -2:
		res.Score += 7
	}

	switch {
	case res.Score >= 75:
		res.Classification = TrendingHot
	case res.Score <= 25:
		res.Classification = TrendingCold
	}
	res.Reason = trendingReason(res)
	return res
}

func meanVolume(s marketdata.Series) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, b := range s {
		sum += b.Volume
	}
	return sum / float64(len(s))
}

func trendingReason(res TrendingResult) string {
	parts := make([]string, 0, 3)
	parts = append(parts, fmt.Sprintf("4-week return %+.1f%%", res.Return4W))
	if res.RSvsBenchmark >= 0 {
		parts = append(parts, fmt.Sprintf("outperforming benchmark by %.1f%%", res.RSvsBenchmark))
	} else {
		parts = append(parts, fmt.Sprintf("underperforming by %.1f%%", -res.RSvsBenchmark))
	}
	if res.VolumeTrend >= 0 {
		parts = append(parts, fmt.Sprintf("volume up %.0f%%", res.VolumeTrend))
	} else {
		parts = append(parts, fmt.Sprintf("volume down %.0f%%", -res.VolumeTrend))
	}
	return strings.Join(parts, ", ")
}
