// Package indicator implements the technical indicators used by the screener
// and the regime classifier. Every function is pure and deterministic: it
// never mutates its input, and positions before the minimum lookback carry
// NaN sentinels rather than partial values.
package indicator

import (
	"math"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// SMA computes the simple moving average over window. The first window-1
// positions are NaN.
func SMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded from the first value.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema += alpha * (values[i] - ema)
		out[i] = ema
	}
	return out
}

// TrueRange computes the per-bar true range. The first bar has no previous
// close, so its true range degenerates to high-low.
func TrueRange(s marketdata.Series) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		tr := b.High - b.Low
		if i > 0 {
			prevClose := s[i-1].Close
			tr = math.Max(tr, math.Abs(b.High-prevClose))
			tr = math.Max(tr, math.Abs(b.Low-prevClose))
		}
		out[i] = tr
	}
	return out
}

// ATR computes the average true range as a rolling mean of the true range.
func ATR(s marketdata.Series, period int) []float64 {
	return SMA(TrueRange(s), period)
}

// RSI computes the relative strength index over period. A zero average loss
// is a flat-or-rising window, reported as RSI 100 rather than an error.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := SMA(gains[1:], period)
	avgLoss := SMA(losses[1:], period)
	for i := range avgGain {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		idx := i + 1
		if avgLoss[i] == 0 {
			out[idx] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[idx] = 100 - 100/(1+rs)
	}
	return out
}

// MACD computes the MACD line, signal line and histogram with the given
// EMA spans (conventionally 12, 26, 9).
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, hist
}

// Slope measures the change of a series over the trailing lookback positions,
// per position. Returns 0 when either endpoint is undefined.
func Slope(values []float64, lookback int) float64 {
	if lookback <= 0 || len(values) < lookback {
		return 0
	}
	start := values[len(values)-lookback]
	end := values[len(values)-1]
	if math.IsNaN(start) || math.IsNaN(end) {
		return 0
	}
	return (end - start) / float64(lookback)
}

// High52Week returns the maximum high over the last min(252, len) bars, or
// NaN for an empty series.
func High52Week(s marketdata.Series) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	start := len(s) - 252
	if start < 0 {
		start = 0
	}
	high := math.Inf(-1)
	for _, b := range s[start:] {
		if b.High > high {
			high = b.High
		}
	}
	return high
}

// VolatilityPercentile reports where the latest ATR value sits within the
// trailing lookback window, 0-100. Returns 50 when there is not enough data,
// treating unknown volatility as neutral.
func VolatilityPercentile(atr []float64, lookback int) float64 {
	if len(atr) < lookback || lookback <= 0 {
		return 50
	}
	window := atr[len(atr)-lookback:]
	current := window[len(window)-1]
	if math.IsNaN(current) {
		return 50
	}
	below := 0
	for _, v := range window {
		if !math.IsNaN(v) && v < current {
			below++
		}
	}
	return float64(below) / float64(len(window)) * 100
}

// Return computes the percentage return over the trailing days positions.
// Returns 0 when the series is too short, matching the screener's treatment
// of unknown momentum as flat.
func Return(closes []float64, days int) float64 {
	if days <= 0 || len(closes) < days {
		return 0
	}
	past := closes[len(closes)-days]
	if past == 0 {
		return 0
	}
	return (closes[len(closes)-1] - past) / past * 100
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
