// Package backtest simulates the rule-based rotation strategy over
// historical bars and reports performance. The simulator only ever sees
// history truncated to the rebalance date; every decision on a date uses
// data available on that date and nothing newer.
package backtest

import "time"

// TradeAction labels a simulated trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// EquityPoint is one mark-to-market observation on a rebalance date,
// recorded before that date's trades.
type EquityPoint struct {
	Date                time.Time `json:"date"`
	TotalValue          float64   `json:"total_value"`
	Cash                float64   `json:"cash"`
	HoldingsCount       int       `json:"holdings_count"`
	CumulativeDividends float64   `json:"cumulative_dividends"`
}

// TradeRecord is one executed simulated trade.
type TradeRecord struct {
	Date   time.Time   `json:"date"`
	Action TradeAction `json:"action"`
	Ticker string      `json:"ticker"`
	Shares int         `json:"shares"`
	Price  float64     `json:"price"`
	Score  float64     `json:"score"`
	Reason string      `json:"reason"`
}

// TaxEvent records one yearly ISK tax assessment.
type TaxEvent struct {
	Date       time.Time `json:"date"`
	Year       int       `json:"year"` // the year being taxed
	Amount     float64   `json:"amount"`
	Liquidated []string  `json:"liquidated,omitempty"` // positions sold to cover
}

// RegimeSnapshot records the regime assessment driving one rebalance.
type RegimeSnapshot struct {
	Date           time.Time `json:"date"`
	Label          string    `json:"regime"`
	Score          float64   `json:"regime_score"`
	TargetHoldings int       `json:"target_holdings"` // after drawdown adjustment
	DrawdownPct    float64   `json:"drawdown_pct"`
	RiskLevel      string    `json:"risk_level"`
}

// HoldingSnapshot is one open position at the end of the run.
type HoldingSnapshot struct {
	Ticker    string    `json:"ticker"`
	Shares    int       `json:"shares"`
	AvgCost   float64   `json:"avg_cost"`
	LastPrice float64   `json:"last_price"`
	Value     float64   `json:"value"`
	EntryDate time.Time `json:"entry_date"`
}

// Result bundles everything a completed run produced.
type Result struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`

	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Frequency string    `json:"frequency"`
	Benchmark string    `json:"benchmark"`

	Equity   []EquityPoint    `json:"equity_curve"`
	Trades   []TradeRecord    `json:"trades"`
	Taxes    []TaxEvent       `json:"tax_events"`
	Regimes  []RegimeSnapshot `json:"regimes"`
	Holdings []HoldingSnapshot `json:"final_holdings"`

	// SkippedPeriods lists rebalance dates that became no-ops because the
	// benchmark or the bulk of the universe had no data.
	SkippedPeriods []time.Time `json:"skipped_periods,omitempty"`

	Performance Performance `json:"performance"`
}
