package portfolio

import (
	"fmt"
	"math"
)

// SizingMethod selects the position-sizing strategy for a run. Exactly one
// method is active per backtest; the variant is resolved at run start, never
// re-branched inside the rebalance loop.
type SizingMethod string

const (
	SizeFixedPercent     SizingMethod = "fixed_percent"
	SizeATRAdjusted      SizingMethod = "atr_adjusted"
	SizeConvictionTiered SizingMethod = "conviction_tiered"
)

// SizingConfig parameterizes all three strategies; only the fields for the
// selected Method are consulted. Percentages are whole percent (2.5 = 2.5%).
type SizingConfig struct {
	Method SizingMethod `yaml:"method"`

	FixedPct    float64 `yaml:"fixed_pct"`     // default 2.5
	FixedMaxPct float64 `yaml:"fixed_max_pct"` // default 3.0

	ATRRiskPct    float64 `yaml:"atr_risk_pct"`   // account risk per position, default 1.0
	ATRMultiplier float64 `yaml:"atr_multiplier"` // stop distance in ATRs, default 2.0
	ATRMinPct     float64 `yaml:"atr_min_pct"`    // weight clamp, default 1.0
	ATRMaxPct     float64 `yaml:"atr_max_pct"`    // weight clamp, default 5.0

	Tier1Count int     `yaml:"tier1_count"` // default 15
	Tier1Pct   float64 `yaml:"tier1_pct"`   // aggregate, default 50
	Tier2Count int     `yaml:"tier2_count"` // default 25
	Tier2Pct   float64 `yaml:"tier2_pct"`   // aggregate, default 35
	Tier3Pct   float64 `yaml:"tier3_pct"`   // aggregate, default 15
	TierMaxPct float64 `yaml:"tier_max_pct"` // absolute per-stock cap, default 5
}

// DefaultSizingConfig returns fixed 2.5% sizing with the standard parameters
// for the other two methods filled in.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		Method:        SizeFixedPercent,
		FixedPct:      2.5,
		FixedMaxPct:   3.0,
		ATRRiskPct:    1.0,
		ATRMultiplier: 2.0,
		ATRMinPct:     1.0,
		ATRMaxPct:     5.0,
		Tier1Count:    15,
		Tier1Pct:      50,
		Tier2Count:    25,
		Tier2Pct:      35,
		Tier3Pct:      15,
		TierMaxPct:    5,
	}
}

// Validate fails fast on inconsistent sizing parameters before a run starts.
func (c SizingConfig) Validate() error {
	switch c.Method {
	case SizeFixedPercent:
		if c.FixedPct <= 0 || c.FixedPct > c.FixedMaxPct {
			return fmt.Errorf("fixed_pct %.2f must be positive and at most fixed_max_pct %.2f", c.FixedPct, c.FixedMaxPct)
		}
	case SizeATRAdjusted:
		if c.ATRRiskPct <= 0 || c.ATRMultiplier <= 0 {
			return fmt.Errorf("atr_risk_pct and atr_multiplier must be positive")
		}
		if c.ATRMinPct <= 0 || c.ATRMinPct > c.ATRMaxPct {
			return fmt.Errorf("atr_min_pct %.2f must be positive and at most atr_max_pct %.2f", c.ATRMinPct, c.ATRMaxPct)
		}
	case SizeConvictionTiered:
		if c.Tier1Count <= 0 || c.Tier2Count <= 0 {
			return fmt.Errorf("conviction tier counts must be positive")
		}
		total := c.Tier1Pct + c.Tier2Pct + c.Tier3Pct
		if math.Abs(total-100) > 1e-6 {
			return fmt.Errorf("conviction tier weights sum to %.2f%%, want 100%%", total)
		}
		if c.TierMaxPct <= 0 {
			return fmt.Errorf("tier_max_pct must be positive")
		}
	default:
		return fmt.Errorf("unknown sizing method %q", c.Method)
	}
	return nil
}

// Sizing is a concrete position size. Weight is the realized weight implied
// by the rounded share count, not the theoretical target, so trade logs
// reflect what integer shares actually bought.
type Sizing struct {
	Shares int
	Weight float64 // percent of capital
	Method SizingMethod
}

func sizeFromShares(capital, price float64, shares int, method SizingMethod) Sizing {
	s := Sizing{Shares: shares, Method: method}
	if capital > 0 {
		s.Weight = float64(shares) * price / capital * 100
	}
	return s
}

// Fixed sizes a position at targetPct of capital, capped at maxPct. Shares
// always round down.
func Fixed(capital, price, targetPct, maxPct float64) Sizing {
	if price <= 0 || capital <= 0 {
		return Sizing{Method: SizeFixedPercent}
	}
	shares := int(capital * targetPct / 100 / price)
	if maxPct > 0 && float64(shares)*price/capital*100 > maxPct {
		shares = int(capital * maxPct / 100 / price)
	}
	return sizeFromShares(capital, price, shares, SizeFixedPercent)
}

// ATRAdjusted sizes a position so that a stop at ATR*multiplier below entry
// risks riskPct of capital, with the implied weight clamped to
// [minPct, maxPct]. An undefined or non-positive ATR falls back to fixed
// sizing.
func ATRAdjusted(capital, price, atr float64, cfg SizingConfig) Sizing {
	if math.IsNaN(atr) || atr <= 0 {
		s := Fixed(capital, price, cfg.FixedPct, cfg.FixedMaxPct)
		s.Method = SizeATRAdjusted
		return s
	}
	if price <= 0 || capital <= 0 {
		return Sizing{Method: SizeATRAdjusted}
	}

	riskDollars := capital * cfg.ATRRiskPct / 100
	stopDistance := atr * cfg.ATRMultiplier
	positionDollars := riskDollars / stopDistance * price
	rawWeight := positionDollars / capital * 100
	weight := math.Max(cfg.ATRMinPct, math.Min(cfg.ATRMaxPct, rawWeight))

	shares := int(capital * weight / 100 / price)
	return sizeFromShares(capital, price, shares, SizeATRAdjusted)
}

// ConvictionWeight returns the target percent weight for a stock at the given
// 1-based rank. Tier 1 splits Tier1Pct equally, tier 2 splits Tier2Pct, and
// the remainder splits Tier3Pct.
func ConvictionWeight(rank, totalStocks int, cfg SizingConfig) float64 {
	switch {
	case rank <= cfg.Tier1Count:
		return cfg.Tier1Pct / float64(cfg.Tier1Count)
	case rank <= cfg.Tier1Count+cfg.Tier2Count:
		return cfg.Tier2Pct / float64(cfg.Tier2Count)
	default:
		tier3 := totalStocks - cfg.Tier1Count - cfg.Tier2Count
		if tier3 < 1 {
			tier3 = 1
		}
		return cfg.Tier3Pct / float64(tier3)
	}
}

// Conviction sizes a position at its tier weight, capped at the absolute
// per-stock maximum.
func Conviction(capital, price float64, rank, totalStocks int, cfg SizingConfig) Sizing {
	if price <= 0 || capital <= 0 {
		return Sizing{Method: SizeConvictionTiered}
	}
	weight := math.Min(ConvictionWeight(rank, totalStocks, cfg), cfg.TierMaxPct)
	shares := int(capital * weight / 100 / price)
	return sizeFromShares(capital, price, shares, SizeConvictionTiered)
}

// Size dispatches to the configured strategy. rank and totalStocks feed the
// conviction tiers; atr feeds ATR sizing; both are ignored by the other
// methods.
func (c SizingConfig) Size(capital, price, atr float64, rank, totalStocks int) Sizing {
	switch c.Method {
	case SizeATRAdjusted:
		return ATRAdjusted(capital, price, atr, c)
	case SizeConvictionTiered:
		return Conviction(capital, price, rank, totalStocks, c)
	default:
		return Fixed(capital, price, c.FixedPct, c.FixedMaxPct)
	}
}
