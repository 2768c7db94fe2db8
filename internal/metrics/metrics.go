// Package metrics exposes prometheus collectors for the data layer and the
// backtest loop. Collectors are registered on the default registry; binaries
// that want to scrape them mount promhttp themselves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderRequests counts upstream market data requests by outcome.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kavastu_provider_requests_total",
		Help: "Market data provider requests by provider and outcome",
	}, []string{"provider", "outcome"})

	// CacheLookups counts run-cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kavastu_run_cache_lookups_total",
		Help: "Run-scoped history cache lookups by result",
	}, []string{"result"})

	// RebalanceDuration observes wall time per rebalance step.
	RebalanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kavastu_rebalance_duration_seconds",
		Help:    "Duration of one backtest rebalance step",
		Buckets: prometheus.DefBuckets,
	})

	// TradesExecuted counts executed simulated trades by action.
	TradesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kavastu_trades_executed_total",
		Help: "Simulated trades executed by action",
	}, []string{"action"})
)
