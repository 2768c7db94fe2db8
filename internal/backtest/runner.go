package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Doxinos/kavastu-tracker/internal/config"
	"github.com/Doxinos/kavastu-tracker/internal/indicator"
	"github.com/Doxinos/kavastu-tracker/internal/marketdata"
	"github.com/Doxinos/kavastu-tracker/internal/metrics"
	"github.com/Doxinos/kavastu-tracker/internal/portfolio"
	"github.com/Doxinos/kavastu-tracker/internal/regime"
	"github.com/Doxinos/kavastu-tracker/internal/scoring"
)

// lookbackDays is the calendar window fetched per rebalance: enough trading
// days for the slow MA plus the 52-week high on top of it.
const lookbackDays = 600

// minCoverage is the fraction of the universe that must have data on a
// rebalance date; below it the period is a logged no-op.
const minCoverage = 0.3

// Runner drives one backtest. Construct with NewRunner and call Run once.
type Runner struct {
	cfg      config.Config
	provider marketdata.Provider
	funds    marketdata.FundamentalsProvider // nil disables quality scoring
	tickers  []string
	scorer   *scoring.Scorer
	log      zerolog.Logger
}

func NewRunner(cfg config.Config, provider marketdata.Provider, funds marketdata.FundamentalsProvider, tickers []string) *Runner {
	return &Runner{
		cfg:      cfg,
		provider: provider,
		funds:    funds,
		tickers:  tickers,
		scorer:   scoring.New(cfg.Scoring),
		log:      log.With().Str("component", "backtest").Logger(),
	}
}

// Run executes the full simulation. It returns early only on config errors
// or context cancellation; data gaps degrade individual periods instead.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	start, end := r.cfg.StartDate(), r.cfg.EndDate()
	dates := RebalanceDates(start, end, r.cfg.Frequency)

	res := &Result{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Start:     start,
		End:       end,
		Frequency: string(r.cfg.Frequency),
		Benchmark: r.cfg.Benchmark,
	}
	r.log.Info().Str("run_id", res.RunID).
		Time("start", start).Time("end", end).
		Str("frequency", string(r.cfg.Frequency)).
		Int("universe", len(r.tickers)).
		Msg("backtest starting")

	port := portfolio.New(r.cfg.InitialCapital)
	prevDate := start
	prevValue := r.cfg.InitialCapital
	// lastPrices carries the most recent known price per ticker so halted
	// names still mark to something during degraded periods.
	lastPrices := make(map[string]float64)

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest aborted at %s: %w", date.Format("2006-01-02"), err)
		}
		stepStart := time.Now()
		r.step(ctx, res, port, date, prevDate, prevValue, lastPrices)
		metrics.RebalanceDuration.Observe(time.Since(stepStart).Seconds())

		prevDate = date
		prevValue = port.TotalValue(lastPrices)
	}

	r.finish(ctx, res, port, lastPrices)
	return res, nil
}

// step runs one rebalance period end to end.
func (r *Runner) step(ctx context.Context, res *Result, port *portfolio.Portfolio, date, prevDate time.Time, prevValue float64, lastPrices map[string]float64) {
	// Dividends with an ex-date inside (prevDate, date] land as cash first.
	if port.HoldingsCount() > 0 {
		divs := make(map[string][]marketdata.Dividend)
		for _, t := range port.Tickers() {
			events, err := r.provider.Dividends(ctx, t, prevDate, date)
			if err == nil && len(events) > 0 {
				divs[t] = events
			}
		}
		if paid := port.CollectDividends(divs, prevDate, date); paid > 0 {
			r.log.Debug().Time("date", date).Float64("amount", paid).Msg("dividends collected")
		}
	}

	// Yearly ISK tax is assessed when the calendar year rolls over, on the
	// portfolio value at the last rebalance of the taxed year. It runs before
	// the data-availability gate: a degraded first period of the new year must
	// not swallow the previous year's tax.
	if date.Year() > prevDate.Year() {
		if rule, ok := r.cfg.TaxRuleFor(prevDate.Year()); ok {
			tax, liquidated := port.PayTax(prevValue, rule, lastPrices, r.cfg.TransactionCostRate)
			if tax > 0 {
				res.Taxes = append(res.Taxes, TaxEvent{Date: date, Year: prevDate.Year(), Amount: tax, Liquidated: liquidated})
				r.log.Info().Int("year", prevDate.Year()).Float64("tax", tax).
					Strs("liquidated", liquidated).Msg("yearly tax paid")
			}
		}
	}

	// Fetch truncated history for the benchmark and every universe member.
	bench, benchErr := r.provider.History(ctx, r.cfg.Benchmark, date, lookbackDays)
	series := make(map[string]marketdata.Series, len(r.tickers))
	for _, t := range r.tickers {
		s, err := r.provider.History(ctx, t, date, lookbackDays)
		if err != nil || len(s) == 0 {
			continue
		}
		series[t] = s
		lastPrices[t] = s.LastClose()
	}

	if benchErr != nil || len(bench) == 0 || float64(len(series)) < minCoverage*float64(len(r.tickers)) {
		r.log.Warn().Time("date", date).
			Int("with_data", len(series)).
			Bool("benchmark_missing", benchErr != nil || len(bench) == 0).
			Msg("insufficient data, skipping rebalance")
		res.SkippedPeriods = append(res.SkippedPeriods, date)
		return
	}

	totalValue := port.TotalValue(lastPrices)
	res.Equity = append(res.Equity, EquityPoint{
		Date:                date,
		TotalValue:          totalValue,
		Cash:                port.Cash(),
		HoldingsCount:       port.HoldingsCount(),
		CumulativeDividends: port.TotalDividends(),
	})

	// Regime target, shrunk by the drawdown multiplier.
	var cls regime.Classification
	if r.cfg.RegimeMode == config.RegimeMultiFactorDynamic {
		cls = regime.Dynamic(bench, series, r.cfg.Scoring.Windows)
	} else {
		cls = regime.Simple(bench, r.cfg.Scoring.Windows, r.cfg.MaxHoldings)
	}
	ddPct, mult, level := port.DrawdownAdjustment(lastPrices)
	target := int(float64(cls.TargetHoldings) * mult)
	if target < 1 {
		target = 1
	}
	res.Regimes = append(res.Regimes, RegimeSnapshot{
		Date: date, Label: string(cls.Label), Score: cls.Score,
		TargetHoldings: target, DrawdownPct: ddPct, RiskLevel: string(level),
	})
	r.log.Debug().Time("date", date).Str("regime", string(cls.Label)).
		Int("target", target).Float64("drawdown_pct", ddPct).Msg("rebalance context")

	benchReturns := benchmarkReturns(bench)
	records := r.screen(ctx, series, benchReturns)
	top := records
	if len(top) > target {
		top = top[:target]
	}
	inTarget := make(map[string]bool, len(top))
	for _, rec := range top {
		inTarget[rec.Ticker] = true
	}
	recordByTicker := make(map[string]scoring.Record, len(records))
	for _, rec := range records {
		recordByTicker[rec.Ticker] = rec
	}

	r.sellPhase(res, port, date, series, inTarget, recordByTicker)
	r.buyPhase(res, port, date, series, top, target, lastPrices)
}

// screen scores every ticker with data and returns the eligible candidates,
// best first. The slow-MA gate is a hard filter: a stock below its slow MA
// never enters the buy list no matter its other components.
func (r *Runner) screen(ctx context.Context, series map[string]marketdata.Series, bench scoring.BenchmarkReturns) []scoring.Record {
	var records []scoring.Record
	for t, s := range series {
		funds := marketdata.EmptyFundamentals()
		if r.funds != nil && r.cfg.Scoring.IncludeFundamentals {
			if f, err := r.funds.Fundamentals(ctx, t); err == nil {
				funds = f
			}
		}
		rec := r.scorer.Score(t, s, bench, funds)
		if math.IsNaN(rec.MASlow) || rec.Price <= rec.MASlow {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Ticker < records[j].Ticker
	})
	return records
}

// sellPhase liquidates holdings that fell out of the target list or closed
// below their slow MA. The MA check reads the held ticker's own indicators,
// not the screen output: gate failures never reach the screen records, and
// the alarm must fire even for names still ranked high enough to stay.
func (r *Runner) sellPhase(res *Result, port *portfolio.Portfolio, date time.Time, series map[string]marketdata.Series, inTarget map[string]bool, records map[string]scoring.Record) {
	for _, t := range port.Tickers() {
		s, ok := series[t]
		if !ok || len(s) == 0 {
			r.log.Warn().Str("ticker", t).Time("date", date).Msg("held ticker has no data, keeping position")
			continue
		}
		price := s.LastClose()
		slow := indicator.Compute(s, r.cfg.Scoring.Windows).LastSlow()

		reason := ""
		switch {
		case !math.IsNaN(slow) && price <= slow:
			reason = "closed below slow MA"
		case !inTarget[t]:
			reason = "dropped out of target list"
			if _, scored := records[t]; !scored {
				// Never survived the screen at all.
				reason = "failed trend gate"
			}
		}
		if reason == "" {
			continue
		}

		pos, _ := port.Position(t)
		if port.Sell(t, price, r.cfg.TransactionCostRate) {
			metrics.TradesExecuted.WithLabelValues("sell").Inc()
			res.Trades = append(res.Trades, TradeRecord{
				Date: date, Action: ActionSell, Ticker: t,
				Shares: pos.Shares, Price: price,
				Score: records[t].Score, Reason: reason,
			})
		}
	}
}

// buyPhase fills open slots from the top of the screen, sized by the
// configured method, until the target count or cash runs out.
func (r *Runner) buyPhase(res *Result, port *portfolio.Portfolio, date time.Time, series map[string]marketdata.Series, top []scoring.Record, target int, lastPrices map[string]float64) {
	capital := port.TotalValue(lastPrices)
	for rank, rec := range top {
		if port.HoldingsCount() >= target {
			break
		}
		if _, held := port.Position(rec.Ticker); held {
			continue
		}

		atr := math.NaN()
		if r.cfg.Sizing.Method == portfolio.SizeATRAdjusted {
			if s, ok := series[rec.Ticker]; ok {
				atr = indicator.Compute(s, r.cfg.Scoring.Windows).LastATR()
			}
		}
		sizing := r.cfg.Sizing.Size(capital, rec.Price, atr, rank+1, len(top))
		if sizing.Shares <= 0 {
			continue
		}

		amount := float64(sizing.Shares) * rec.Price
		if !port.Buy(rec.Ticker, amount, rec.Price, r.cfg.TransactionCostRate, date) {
			// Cash exhausted for this size; smaller names further down may
			// still fit, so keep scanning.
			continue
		}
		metrics.TradesExecuted.WithLabelValues("buy").Inc()
		res.Trades = append(res.Trades, TradeRecord{
			Date: date, Action: ActionBuy, Ticker: rec.Ticker,
			Shares: sizing.Shares, Price: rec.Price,
			Score: rec.Score, Reason: fmt.Sprintf("rank %d, score %.1f", rank+1, rec.Score),
		})
	}
}

// finish computes performance and the final holdings snapshot.
func (r *Runner) finish(ctx context.Context, res *Result, port *portfolio.Portfolio, lastPrices map[string]float64) {
	for _, t := range port.Tickers() {
		pos, _ := port.Position(t)
		price := lastPrices[t]
		res.Holdings = append(res.Holdings, HoldingSnapshot{
			Ticker: t, Shares: pos.Shares, AvgCost: pos.AvgCost,
			LastPrice: price, Value: float64(pos.Shares) * price,
			EntryDate: pos.EntryDate,
		})
	}
	res.Performance = Analyze(res.Equity, port.InitialCapital(), port.TotalDividends(), port.TotalTax(), r.cfg.RiskFreeRate, r.cfg.Frequency)

	windowDays := int(res.End.Sub(res.Start).Hours()/24) + lookbackDays
	if bench, err := r.provider.History(ctx, r.cfg.Benchmark, res.End, windowDays); err == nil {
		res.Performance = res.Performance.WithBenchmark(bench, res.Start, res.End)
	}
	res.Duration = time.Since(res.StartedAt).Round(time.Millisecond).String()

	r.log.Info().Str("run_id", res.RunID).
		Float64("final_value", res.Performance.FinalValue).
		Float64("total_return_pct", res.Performance.TotalReturnPct).
		Float64("cagr_net_pct", res.Performance.CAGRNetPct).
		Float64("max_drawdown_pct", res.Performance.MaxDrawdownPct).
		Int("trades", len(res.Trades)).
		Int("skipped_periods", len(res.SkippedPeriods)).
		Msg("backtest complete")
}

// benchmarkReturns derives the relative-strength reference windows from the
// benchmark series.
func benchmarkReturns(bench marketdata.Series) scoring.BenchmarkReturns {
	closes := bench.Closes()
	return scoring.BenchmarkReturns{
		R4W: indicator.Return(closes, 20),
		R3M: indicator.Return(closes, 60),
		R6M: indicator.Return(closes, 120),
	}
}
