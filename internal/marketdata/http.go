package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Doxinos/kavastu-tracker/internal/metrics"
)

// HTTPConfig configures the chart-endpoint provider.
type HTTPConfig struct {
	BaseURL         string        `yaml:"base_url"`
	RequestInterval time.Duration `yaml:"request_interval"` // default 150ms, the upstream quota
	Burst           int           `yaml:"burst"`
	Timeout         time.Duration `yaml:"timeout"`
	BreakerFailures uint32        `yaml:"breaker_failures"` // consecutive failures before the breaker opens
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// DefaultHTTPConfig returns the provider defaults. The 150ms interval models
// the upstream source's inter-request quota.
func DefaultHTTPConfig(baseURL string) HTTPConfig {
	return HTTPConfig{
		BaseURL:         baseURL,
		RequestInterval: 150 * time.Millisecond,
		Burst:           1,
		Timeout:         15 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// HTTPProvider fetches daily bars and dividend events from a chart-style JSON
// endpoint. All requests pass through a shared token-bucket limiter and a
// circuit breaker; the breaker opening surfaces as request errors, which the
// orchestrator treats as degraded periods rather than fatal failures.
type HTTPProvider struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = 150 * time.Millisecond
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "marketdata-http",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("market data circuit breaker state change")
		},
	}

	return &HTTPProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// chartResponse mirrors the subset of the chart endpoint payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *HTTPProvider) fetch(ctx context.Context, ticker string, from, to time.Time, withEvents bool) (*chartResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", from.Unix()))
	q.Set("period2", fmt.Sprintf("%d", to.Unix()))
	q.Set("interval", "1d")
	if withEvents {
		q.Set("events", "div")
	}
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.cfg.BaseURL, url.PathEscape(ticker), q.Encode())

	res, err := p.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("chart endpoint status %d for %s", resp.StatusCode, ticker)
		}
		var parsed chartResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("decode chart response: %w", err)
		}
		if parsed.Chart.Error != nil {
			return nil, fmt.Errorf("chart endpoint error for %s: %s", ticker, parsed.Chart.Error.Description)
		}
		return &parsed, nil
	})
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("http", "error").Inc()
		return nil, err
	}
	metrics.ProviderRequests.WithLabelValues("http", "ok").Inc()
	return res.(*chartResponse), nil
}

// History fetches daily bars up to asOf. Weekends and upstream gaps mean the
// returned series can be shorter than lookbackDays.
func (p *HTTPProvider) History(ctx context.Context, ticker string, asOf time.Time, lookbackDays int) (Series, error) {
	if lookbackDays <= 0 {
		lookbackDays = 10 * 365
	}
	from := asOf.AddDate(0, 0, -lookbackDays)

	parsed, err := p.fetch(ctx, ticker, from, asOf.AddDate(0, 0, 1), false)
	if err != nil {
		return nil, err
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 || len(result.Timestamp) == 0 {
		return nil, ErrNoData
	}
	quote := result.Indicators.Quote[0]

	var series Series
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		date := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		// Enforce the as-of contract locally as well; upstream clamping is
		// not trusted.
		if date.After(asOf) {
			continue
		}
		series = append(series, Bar{
			Date:   date,
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	return series, nil
}

func (p *HTTPProvider) Dividends(ctx context.Context, ticker string, from, to time.Time) ([]Dividend, error) {
	parsed, err := p.fetch(ctx, ticker, from, to, true)
	if err != nil {
		return nil, err
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil
	}

	var out []Dividend
	for _, d := range parsed.Chart.Result[0].Events.Dividends {
		exDate := time.Unix(d.Date, 0).UTC().Truncate(24 * time.Hour)
		if exDate.After(from) && !exDate.After(to) {
			out = append(out, Dividend{ExDate: exDate, Amount: d.Amount})
		}
	}
	return out, nil
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
