package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ResultSchema creates the run-results table. Idempotent.
const ResultSchema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
    run_id       TEXT PRIMARY KEY,
    started_at   TIMESTAMPTZ NOT NULL,
    start_date   DATE NOT NULL,
    end_date     DATE NOT NULL,
    frequency    TEXT NOT NULL,
    benchmark    TEXT NOT NULL,
    final_value  DOUBLE PRECISION NOT NULL,
    cagr_net_pct DOUBLE PRECISION NOT NULL,
    performance  JSONB NOT NULL
);
`

// PGSink stores run summaries in Postgres so runs can be compared across
// parameter sweeps.
type PGSink struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPGSink(db *sqlx.DB) *PGSink {
	return &PGSink{db: db, timeout: 10 * time.Second}
}

func (s *PGSink) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, ResultSchema); err != nil {
		return fmt.Errorf("ensure results schema: %w", err)
	}
	return nil
}

// Store upserts one run summary keyed by run ID.
func (s *PGSink) Store(ctx context.Context, res *Result) error {
	perf, err := json.Marshal(res.Performance)
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs
			(run_id, started_at, start_date, end_date, frequency, benchmark, final_value, cagr_net_pct, performance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			final_value = EXCLUDED.final_value,
			cagr_net_pct = EXCLUDED.cagr_net_pct,
			performance = EXCLUDED.performance`,
		res.RunID, res.StartedAt, res.Start, res.End, res.Frequency, res.Benchmark,
		res.Performance.FinalValue, res.Performance.CAGRNetPct, perf)
	if err != nil {
		return fmt.Errorf("store run %s: %w", res.RunID, err)
	}
	return nil
}
