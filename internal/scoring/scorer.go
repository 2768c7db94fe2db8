// Package scoring ranks stocks with the momentum screen: a 0-150 composite
// score built from trend, relative strength, momentum and quality components,
// and an independent 0-100 trending score for hot/cold classification.
package scoring

import (
	"math"

	"github.com/Doxinos/kavastu-tracker/internal/indicator"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// BenchmarkReturns carries the benchmark index returns the screen compares
// against, in percent.
type BenchmarkReturns struct {
	R4W float64
	R3M float64
	R6M float64
}

// Record is one ticker's screening result for one as-of date. Records are
// created fresh every screening pass and never mutated; every field is always
// present, with NaN marking undefined numeric values.
type Record struct {
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"` // composite, 0-150

	Price          float64 `json:"price"`
	MAFast         float64 `json:"ma_fast"`
	MAMedium       float64 `json:"ma_medium"`
	MASlow         float64 `json:"ma_slow"`
	DistanceSlowMA float64 `json:"distance_slow_ma"` // percent above/below slow MA

	TripleAligned bool `json:"triple_aligned"`
	FastAboveSlow bool `json:"fast_above_slow"`
	SlowRising    bool `json:"slow_rising"`

	DeathCross          bool `json:"death_cross"`
	DaysSinceDeathCross int  `json:"days_since_death_cross"` // -1 when none

	RelStrength3M float64 `json:"relative_strength_3m"`
	RelStrength6M float64 `json:"relative_strength_6m"`

	High52W        float64 `json:"high_52w"`
	PriceVs52WHigh float64 `json:"price_vs_52w_high"` // ratio, 1.0 at the high

	QualityScore float64 `json:"quality_score"`
	RSI          float64 `json:"rsi"`

	TrendingScore float64  `json:"trending_score"` // 0-100, independent of Score
	TrendingClass Trending `json:"trending_classification"`
	TrendingWhy   string   `json:"trending_reason"`
}

// Config controls the scorer's optional components.
type Config struct {
	Windows               indicator.Windows `yaml:"ma_windows"`
	IncludeFundamentals   bool              `yaml:"include_fundamentals"`
	IndicatorConfirmation bool              `yaml:"indicator_confirmation"` // RSI/MACD bonus block
	CrossLookback         int               `yaml:"cross_lookback"`         // bars scanned for death cross, default 7
	SlopeLookback         int               `yaml:"slope_lookback"`         // bars for slow-MA slope, default 20
}

// DefaultConfig returns the standard screen configuration.
func DefaultConfig() Config {
	return Config{
		Windows:             indicator.DefaultWindows(),
		IncludeFundamentals: true,
		CrossLookback:       7,
		SlopeLookback:       20,
	}
}

// Scorer computes screening records. It is stateless; one Scorer may be
// shared by concurrent workers.
type Scorer struct {
	cfg Config
}

func New(cfg Config) *Scorer {
	if cfg.CrossLookback <= 0 {
		cfg.CrossLookback = 7
	}
	if cfg.SlopeLookback <= 0 {
		cfg.SlopeLookback = 20
	}
	if cfg.Windows.Slow <= 0 {
		cfg.Windows = indicator.DefaultWindows()
	}
	return &Scorer{cfg: cfg}
}

func emptyRecord(ticker string) Record {
	nan := math.NaN()
	return Record{
		Ticker:              ticker,
		Price:               nan,
		MAFast:              nan,
		MAMedium:            nan,
		MASlow:              nan,
		DistanceSlowMA:      nan,
		DaysSinceDeathCross: -1,
		High52W:             nan,
		PriceVs52WHigh:      nan,
		RSI:                 nan,
		TrendingClass:       TrendingNeutral,
	}
}

// Score computes the composite record for one ticker as of the end of the
// given series. A series shorter than the slow-MA window yields a zero-score
// sentinel record, not an error: thin history disqualifies, it does not fail
// the screen.
func (sc *Scorer) Score(ticker string, series marketdata.Series, bench BenchmarkReturns, funds marketdata.Fundamentals) Record {
	rec := emptyRecord(ticker)
	if len(series) == 0 {
		return rec
	}

	set := indicator.Compute(series, sc.cfg.Windows)
	rec.Price = series.LastClose()
	rec.MAFast = set.LastFast()
	rec.MAMedium = set.LastMedium()
	rec.MASlow = set.LastSlow()

	// Trending runs on its own scale and ignores the MA gate: a gated name
	// still reports whether short-term momentum is hot or cold.
	trend := TrendingScore(ticker, series, bench)
	rec.TrendingScore = trend.Score
	rec.TrendingClass = trend.Classification
	rec.TrendingWhy = trend.Reason

	if !set.Ready() {
		return rec
	}
	rec.DistanceSlowMA = (rec.Price - rec.MASlow) / rec.MASlow * 100

	// Hard gate: price must trade above the slow MA. Below it the remaining
	// components are skipped entirely so the screen never surfaces a
	// downtrending name with a padded score.
	if rec.Price <= rec.MASlow {
		return rec
	}
	score := 20.0

	// Trend alignment.
	if !math.IsNaN(rec.MAFast) {
		switch {
		case !math.IsNaN(rec.MAMedium) && rec.MAFast > rec.MAMedium && rec.MAMedium > rec.MASlow:
			score += 15
			rec.TripleAligned = true
			rec.FastAboveSlow = true
		case rec.MAFast > rec.MASlow:
			score += 10
			rec.FastAboveSlow = true
		}
	}

	// Slow MA slope.
	if indicator.Slope(set.MASlow, sc.cfg.SlopeLookback) > 0 {
		score += 10
		rec.SlowRising = true
	}

	// Death cross penalty: a fresh fast-below-slow crossing is a leading
	// bearish signal the price-above-MA gate alone would miss.
	cross := indicator.DetectMACross(set.MAFast, set.MASlow, sc.cfg.CrossLookback)
	if cross.Death {
		score -= 20
		rec.DeathCross = true
		rec.DaysSinceDeathCross = cross.DaysSince
	}

	// Relative strength vs benchmark, 3m and 6m halves scored independently.
	closes := series.Closes()
	rec.RelStrength3M = indicator.Return(closes, 60) - bench.R3M
	rec.RelStrength6M = indicator.Return(closes, 120) - bench.R6M
	score += clamp(rec.RelStrength3M*0.5, 0, 15) // 30% outperformance = full 15
	score += clamp(rec.RelStrength6M*0.5, 0, 15)

	// Momentum: distance above the slow MA and proximity to the 52-week high.
	score += clamp(rec.DistanceSlowMA*1.5, 0, 15) // 10% above = full 15
	rec.High52W = indicator.High52Week(series)
	if !math.IsNaN(rec.High52W) && rec.High52W > 0 {
		rec.PriceVs52WHigh = rec.Price / rec.High52W
		score += clamp(rec.PriceVs52WHigh*15, 0, 15)
	}

	// Quality.
	if sc.cfg.IncludeFundamentals {
		rec.QualityScore = QualityScore(funds)
		score += rec.QualityScore
	}

	// Optional RSI/MACD confirmation block.
	if sc.cfg.IndicatorConfirmation {
		score += sc.confirmationPoints(&rec, set)
	}

	rec.Score = math.Round(score*10) / 10
	return rec
}

func (sc *Scorer) confirmationPoints(rec *Record, set indicator.Set) float64 {
	var pts float64

	rsi := set.LastRSI()
	rec.RSI = rsi
	if !math.IsNaN(rsi) {
		switch {
		case rsi >= 50 && rsi <= 60:
			pts += 10 // strong but not overbought
		case rsi > 60 && rsi <= 70:
			pts += 7
		case rsi >= 40 && rsi < 50:
			pts += 5
		case rsi > 70:
			pts -= 5 // overbought
		}
	}

	macd := indicator.DetectMACDCross(set.MACD, set.MACDSignal, set.MACDHist, 5)
	switch {
	case macd.Bullish:
		pts += 10
	case macd.Positive && macd.HistRising:
		pts += 7
	case macd.Positive:
		pts += 4
	}
	if macd.Bearish {
		pts -= 10
	}
	return pts
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
