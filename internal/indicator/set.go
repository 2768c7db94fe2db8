package indicator

import (
	"math"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// Windows holds the moving-average windows used across the system. The
// defaults mirror the 50/100/200 triple MA setup; optimization runs may swap
// in other periods without the rest of the pipeline noticing.
type Windows struct {
	Fast   int `yaml:"fast"`
	Medium int `yaml:"medium"`
	Slow   int `yaml:"slow"`
}

// DefaultWindows returns the standard 50/100/200 configuration.
func DefaultWindows() Windows {
	return Windows{Fast: 50, Medium: 100, Slow: 200}
}

// Set is the full indicator pipeline computed over one price series. Slices
// are aligned with the input series; positions before each indicator's
// minimum lookback are NaN.
type Set struct {
	Windows    Windows
	MAFast     []float64
	MAMedium   []float64
	MASlow     []float64
	ATR        []float64
	RSI        []float64
	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64
}

// Compute derives the indicator set for s. The input series is never
// mutated.
func Compute(s marketdata.Series, w Windows) Set {
	closes := s.Closes()
	set := Set{
		Windows:  w,
		MAFast:   SMA(closes, w.Fast),
		MAMedium: SMA(closes, w.Medium),
		MASlow:   SMA(closes, w.Slow),
		ATR:      ATR(s, 14),
		RSI:      RSI(closes, 14),
	}
	set.MACD, set.MACDSignal, set.MACDHist = MACD(closes, 12, 26, 9)
	return set
}

// Ready reports whether the slow MA is defined on the last bar, i.e. the
// series carries at least the slow-MA window of history. Consumers must not
// score a ticker whose set is not ready.
func (s Set) Ready() bool {
	n := len(s.MASlow)
	return n > 0 && !math.IsNaN(s.MASlow[n-1])
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// LastFast, LastMedium and LastSlow return the latest MA values.
func (s Set) LastFast() float64   { return last(s.MAFast) }
func (s Set) LastMedium() float64 { return last(s.MAMedium) }
func (s Set) LastSlow() float64   { return last(s.MASlow) }

// LastATR returns the latest ATR value.
func (s Set) LastATR() float64 { return last(s.ATR) }

// LastRSI returns the latest RSI value.
func (s Set) LastRSI() float64 { return last(s.RSI) }
