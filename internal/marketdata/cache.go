package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Doxinos/kavastu-tracker/internal/metrics"
)

// RunCache decorates a Provider with run-scoped caching. Consecutive
// rebalance dates share most of their lookback window, so the cache fetches
// each ticker's history once, far enough forward to cover the whole run, and
// answers every History call by truncating locally.
//
// A RunCache belongs to exactly one backtest run. It is safe for concurrent
// use by the per-ticker scoring workers within one rebalance step.
type RunCache struct {
	src     Provider
	horizon time.Time // latest date any caller may ask for

	mu      sync.Mutex
	series  map[string]Series
	missing map[string]bool
	divs    map[string][]Dividend
}

// NewRunCache creates a cache serving dates up to horizon from src.
func NewRunCache(src Provider, horizon time.Time) *RunCache {
	return &RunCache{
		src:     src,
		horizon: horizon,
		series:  make(map[string]Series),
		missing: make(map[string]bool),
		divs:    make(map[string][]Dividend),
	}
}

func (c *RunCache) full(ctx context.Context, ticker string) (Series, error) {
	c.mu.Lock()
	if c.missing[ticker] {
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return nil, ErrNoData
	}
	if s, ok := c.series[ticker]; ok {
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return s, nil
	}
	c.mu.Unlock()

	metrics.CacheLookups.WithLabelValues("miss").Inc()
	s, err := c.src.History(ctx, ticker, c.horizon, 0)
	if err != nil {
		if err == ErrNoData {
			c.mu.Lock()
			c.missing[ticker] = true
			c.mu.Unlock()
		}
		return nil, err
	}

	c.mu.Lock()
	c.series[ticker] = s
	c.mu.Unlock()
	return s, nil
}

// History serves the request from the cached full series, truncated to asOf.
func (c *RunCache) History(ctx context.Context, ticker string, asOf time.Time, lookbackDays int) (Series, error) {
	full, err := c.full(ctx, ticker)
	if err != nil {
		return nil, err
	}
	s := full.Truncate(asOf)
	if lookbackDays > 0 {
		cutoff := asOf.AddDate(0, 0, -lookbackDays)
		i := 0
		for i < len(s) && s[i].Date.Before(cutoff) {
			i++
		}
		s = s[i:]
	}
	return s, nil
}

// Dividends caches the full dividend history per ticker and filters locally.
func (c *RunCache) Dividends(ctx context.Context, ticker string, from, to time.Time) ([]Dividend, error) {
	c.mu.Lock()
	all, ok := c.divs[ticker]
	c.mu.Unlock()

	if !ok {
		var err error
		all, err = c.src.Dividends(ctx, ticker, time.Time{}, c.horizon)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.divs[ticker] = all
		c.mu.Unlock()
	}

	var out []Dividend
	for _, d := range all {
		if d.ExDate.After(from) && !d.ExDate.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Prefetch warms the cache for tickers using at most workers concurrent
// fetches. The upstream provider's own rate limiter stays the binding
// constraint; workers only bounds the fan-out. Tickers with no data are
// recorded and skipped, not treated as fatal.
func (c *RunCache) Prefetch(ctx context.Context, tickers []string, workers int) {
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, ticker := range tickers {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := c.full(ctx, t); err != nil && err != ErrNoData {
				log.Warn().Err(err).Str("ticker", t).Msg("prefetch failed")
			}
		}(ticker)
	}
	wg.Wait()
}
