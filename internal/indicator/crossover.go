package indicator

import (
	"math"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// Crossover describes recent crossings of the close price against a moving
// average. The booleans flag whether any crossing in that direction occurred
// inside the lookback window; DaysSince reports the most recent crossing
// regardless of direction (-1 when none).
type Crossover struct {
	CrossedAbove bool
	CrossedBelow bool
	Above        bool    // current close above the MA
	Distance     float64 // percent distance of close from the MA
	DaysSince    int
}

// DetectCross scans the last lookback bars for sign changes of close-MA.
// The ma slice must be aligned with s.
func DetectCross(s marketdata.Series, ma []float64, lookback int) Crossover {
	result := Crossover{DaysSince: -1}
	if len(s) == 0 || len(ma) != len(s) {
		return result
	}

	last := len(s) - 1
	currentMA := ma[last]
	if math.IsNaN(currentMA) || currentMA == 0 {
		return result
	}
	close := s[last].Close
	result.Above = close > currentMA
	result.Distance = (close - currentMA) / currentMA * 100

	start := last - lookback
	if start < 0 {
		start = 0
	}
	for i := start; i < last; i++ {
		prevMA, nextMA := ma[i], ma[i+1]
		if math.IsNaN(prevMA) || math.IsNaN(nextMA) {
			continue
		}
		prevClose, nextClose := s[i].Close, s[i+1].Close

		if prevClose >= prevMA && nextClose < nextMA {
			result.CrossedBelow = true
			result.DaysSince = last - i - 1
		}
		if prevClose <= prevMA && nextClose > nextMA {
			result.CrossedAbove = true
			result.DaysSince = last - i - 1
		}
	}
	return result
}

// MACross reports whether the fast MA crossed the slow MA inside the lookback
// window. A fast-below-slow crossing is the death cross the screener
// penalizes; the opposite is a golden cross.
type MACross struct {
	Death     bool
	Golden    bool
	DaysSince int
}

// DetectMACross scans for fast/slow MA crossings over the last lookback bars.
func DetectMACross(fast, slow []float64, lookback int) MACross {
	result := MACross{DaysSince: -1}
	n := len(fast)
	if n == 0 || len(slow) != n {
		return result
	}
	start := n - 1 - lookback
	if start < 0 {
		start = 0
	}
	for i := start; i < n-1; i++ {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) || math.IsNaN(fast[i+1]) || math.IsNaN(slow[i+1]) {
			continue
		}
		if fast[i] >= slow[i] && fast[i+1] < slow[i+1] {
			result.Death = true
			result.DaysSince = n - i - 2
		}
		if fast[i] <= slow[i] && fast[i+1] > slow[i+1] {
			result.Golden = true
			result.DaysSince = n - i - 2
		}
	}
	return result
}

// MACDCross describes recent MACD/signal line behavior.
type MACDCross struct {
	Bullish     bool // MACD crossed above the signal line
	Bearish     bool // MACD crossed below the signal line
	Positive    bool // MACD above the zero line
	HistRising  bool // histogram increased on the latest bar
}

// DetectMACDCross scans the last lookback bars for MACD/signal crossings.
func DetectMACDCross(macd, signal, hist []float64, lookback int) MACDCross {
	var result MACDCross
	n := len(macd)
	if n == 0 || len(signal) != n {
		return result
	}

	result.Positive = macd[n-1] > 0
	if len(hist) == n && n >= 2 {
		result.HistRising = hist[n-1] > hist[n-2]
	}

	start := n - 1 - lookback
	if start < 0 {
		start = 0
	}
	for i := start; i < n-1; i++ {
		if math.IsNaN(macd[i]) || math.IsNaN(macd[i+1]) {
			continue
		}
		if macd[i] <= signal[i] && macd[i+1] > signal[i+1] {
			result.Bullish = true
		}
		if macd[i] >= signal[i] && macd[i+1] < signal[i+1] {
			result.Bearish = true
		}
	}
	return result
}
