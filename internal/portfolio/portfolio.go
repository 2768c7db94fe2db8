// Package portfolio owns the simulated account state: cash, holdings,
// dividend and tax accumulators, and the drawdown high-water mark. All trade
// operations report failure as a boolean no-op rather than partially
// executing; callers must check the result.
package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
)

// Position is one held stock. Shares is always positive; a full sell removes
// the position entirely (the strategy never partial-sells).
type Position struct {
	Ticker    string    `json:"ticker"`
	Shares    int       `json:"shares"`
	AvgCost   float64   `json:"avg_cost"`
	EntryDate time.Time `json:"entry_date"`
}

// RiskLevel describes the current drawdown band.
type RiskLevel string

const (
	RiskNormal       RiskLevel = "NORMAL"
	RiskCautious     RiskLevel = "CAUTIOUS"
	RiskReduce       RiskLevel = "REDUCE"
	RiskDefensive    RiskLevel = "DEFENSIVE"
	RiskMaxDefensive RiskLevel = "MAX_DEFENSIVE"
)

// TaxRule holds one year's ISK parameters: a flat rate on account value above
// a tax-free threshold. Both are policy inputs, never hardcoded per year.
type TaxRule struct {
	Rate       float64 `yaml:"rate"`
	FreeAmount float64 `yaml:"free_amount"`
}

// Portfolio is the aggregate account state for one backtest run. It is owned
// exclusively by the orchestrator and must not be shared across runs.
type Portfolio struct {
	initialCapital float64
	cash           float64
	holdings       map[string]Position
	peakValue      float64
	totalDividends float64
	totalTax       float64
}

func New(initialCapital float64) *Portfolio {
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		holdings:       make(map[string]Position),
		peakValue:      initialCapital,
	}
}

func (p *Portfolio) InitialCapital() float64 { return p.initialCapital }
func (p *Portfolio) Cash() float64           { return p.cash }
func (p *Portfolio) PeakValue() float64      { return p.peakValue }
func (p *Portfolio) TotalDividends() float64 { return p.totalDividends }
func (p *Portfolio) TotalTax() float64       { return p.totalTax }
func (p *Portfolio) HoldingsCount() int      { return len(p.holdings) }

// Position returns the held position for ticker, if any.
func (p *Portfolio) Position(ticker string) (Position, bool) {
	pos, ok := p.holdings[ticker]
	return pos, ok
}

// Holdings returns a copy of the holdings map.
func (p *Portfolio) Holdings() map[string]Position {
	out := make(map[string]Position, len(p.holdings))
	for k, v := range p.holdings {
		out[k] = v
	}
	return out
}

// Tickers returns the held tickers in deterministic order.
func (p *Portfolio) Tickers() []string {
	out := make([]string, 0, len(p.holdings))
	for t := range p.holdings {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TotalValue marks the portfolio to market. Tickers missing from prices
// contribute zero, mirroring an untradeable halt.
func (p *Portfolio) TotalValue(prices map[string]float64) float64 {
	value := p.cash
	for ticker, pos := range p.holdings {
		value += float64(pos.Shares) * prices[ticker]
	}
	return value
}

// Buy invests roughly amount into ticker at price. It fails without side
// effects when fees would overdraw cash or when amount buys less than one
// share. Re-buying a held ticker volume-weights the average cost.
func (p *Portfolio) Buy(ticker string, amount, price, costRate float64, date time.Time) bool {
	if price <= 0 || amount <= 0 {
		return false
	}
	if amount*(1+costRate) > p.cash {
		return false
	}
	shares := int(amount / price)
	if shares <= 0 {
		return false
	}

	cost := float64(shares) * price * (1 + costRate)

	if old, ok := p.holdings[ticker]; ok {
		totalShares := old.Shares + shares
		avg := (float64(old.Shares)*old.AvgCost + float64(shares)*price) / float64(totalShares)
		p.holdings[ticker] = Position{
			Ticker:    ticker,
			Shares:    totalShares,
			AvgCost:   avg,
			EntryDate: old.EntryDate,
		}
	} else {
		p.holdings[ticker] = Position{Ticker: ticker, Shares: shares, AvgCost: price, EntryDate: date}
	}
	p.cash -= cost
	return true
}

// Sell liquidates the entire position in ticker at price. Fails when the
// ticker is not held.
func (p *Portfolio) Sell(ticker string, price, costRate float64) bool {
	pos, ok := p.holdings[ticker]
	if !ok {
		return false
	}
	p.cash += float64(pos.Shares) * price * (1 - costRate)
	delete(p.holdings, ticker)
	return true
}

// SellAll liquidates every holding with a known price.
func (p *Portfolio) SellAll(prices map[string]float64, costRate float64) {
	for _, ticker := range p.Tickers() {
		if price, ok := prices[ticker]; ok && price > 0 {
			p.Sell(ticker, price, costRate)
		}
	}
}

// CollectDividends credits cash for every held ticker's dividend events
// strictly after periodStart and on/before periodEnd. Dividends are paid as
// cash, never reinvested as shares; the cash then funds later buys. Returns
// the amount collected this period.
func (p *Portfolio) CollectDividends(dividends map[string][]marketdata.Dividend, periodStart, periodEnd time.Time) float64 {
	var collected float64
	for ticker, pos := range p.holdings {
		for _, d := range dividends[ticker] {
			if d.ExDate.After(periodStart) && !d.ExDate.After(periodEnd) {
				collected += float64(pos.Shares) * d.Amount
			}
		}
	}
	p.cash += collected
	p.totalDividends += collected
	return collected
}

// PayTax assesses the flat ISK tax on account value under rule and debits it
// from cash. When cash cannot cover the tax, the smallest positions are
// liquidated at the supplied prices until it can; cash never goes negative.
// Returns the tax paid and any tickers sold to fund it.
func (p *Portfolio) PayTax(value float64, rule TaxRule, prices map[string]float64, costRate float64) (float64, []string) {
	taxable := value - rule.FreeAmount
	if taxable <= 0 {
		return 0, nil
	}
	tax := taxable * rule.Rate

	var liquidated []string
	for p.cash < tax && len(p.holdings) > 0 {
		ticker := p.smallestHolding(prices)
		if ticker == "" {
			break
		}
		p.Sell(ticker, prices[ticker], costRate)
		liquidated = append(liquidated, ticker)
	}
	if tax > p.cash {
		// Nothing left to sell at a known price; cap the debit at cash.
		tax = p.cash
	}
	p.cash -= tax
	p.totalTax += tax
	return tax, liquidated
}

func (p *Portfolio) smallestHolding(prices map[string]float64) string {
	best := ""
	bestValue := math.Inf(1)
	for _, ticker := range p.Tickers() {
		price, ok := prices[ticker]
		if !ok || price <= 0 {
			continue
		}
		v := float64(p.holdings[ticker].Shares) * price
		if v < bestValue {
			best, bestValue = ticker, v
		}
	}
	return best
}

// DrawdownAdjustment updates the high-water mark, computes the drawdown from
// peak, and maps it to a target-size multiplier. The multiplier throttles
// the NEXT rebalance's target holding count; it never forces sells directly.
// It floors at 0.50, modelling sell-half crash discipline rather than full
// liquidation.
func (p *Portfolio) DrawdownAdjustment(prices map[string]float64) (drawdownPct, multiplier float64, level RiskLevel) {
	value := p.TotalValue(prices)
	if value > p.peakValue {
		p.peakValue = value
	}
	if p.peakValue <= 0 {
		return 0, 1.0, RiskNormal
	}
	drawdownPct = (p.peakValue - value) / p.peakValue * 100

	switch {
	case drawdownPct < 5:
		return drawdownPct, 1.00, RiskNormal
	case drawdownPct < 10:
		return drawdownPct, 0.85, RiskCautious
	case drawdownPct < 15:
		return drawdownPct, 0.70, RiskReduce
	case drawdownPct < 20:
		return drawdownPct, 0.60, RiskDefensive
	default:
		return drawdownPct, 0.50, RiskMaxDefensive
	}
}
