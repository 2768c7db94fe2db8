package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore serves price history from a local Postgres mirror of the
// upstream source, avoiding repeated network fetches across runs. It
// implements Provider with the same as-of truncation contract.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// OpenPostgresStore connects with the given DSN and verifies the connection.
func OpenPostgresStore(dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect price store: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}, nil
}

// NewPostgresStore wraps an existing connection (used by tests).
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle for components sharing the connection.
func (s *PostgresStore) DB() *sqlx.DB { return s.db }

// Schema is the DDL for the price store tables.
const Schema = `
CREATE TABLE IF NOT EXISTS price_bars (
    ticker  TEXT             NOT NULL,
    date    DATE             NOT NULL,
    open    DOUBLE PRECISION NOT NULL,
    high    DOUBLE PRECISION NOT NULL,
    low     DOUBLE PRECISION NOT NULL,
    close   DOUBLE PRECISION NOT NULL,
    volume  DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (ticker, date)
);
CREATE TABLE IF NOT EXISTS dividends (
    ticker  TEXT             NOT NULL,
    ex_date DATE             NOT NULL,
    amount  DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (ticker, ex_date)
);`

// EnsureSchema creates the store tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure price store schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, ticker string, asOf time.Time, lookbackDays int) (Series, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT date, open, high, low, close, volume
		FROM price_bars
		WHERE ticker = $1 AND date <= $2`
	args := []interface{}{ticker, asOf}
	if lookbackDays > 0 {
		query += ` AND date >= $3`
		args = append(args, asOf.AddDate(0, 0, -lookbackDays))
	}
	query += ` ORDER BY date`

	var series Series
	if err := s.db.SelectContext(ctx, &series, query, args...); err != nil {
		return nil, fmt.Errorf("select price bars for %s: %w", ticker, err)
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	return series, nil
}

func (s *PostgresStore) Dividends(ctx context.Context, ticker string, from, to time.Time) ([]Dividend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out []Dividend
	err := s.db.SelectContext(ctx, &out, `
		SELECT ex_date, amount
		FROM dividends
		WHERE ticker = $1 AND ex_date > $2 AND ex_date <= $3
		ORDER BY ex_date`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("select dividends for %s: %w", ticker, err)
	}
	return out, nil
}

// UpsertBars writes bars for ticker, replacing any overlapping dates. Used by
// ingestion tooling to mirror the upstream source.
func (s *PostgresStore) UpsertBars(ctx context.Context, ticker string, bars Series) error {
	if len(bars) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout*time.Duration(len(bars)/500+1))
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bar upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_bars (ticker, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, date) DO UPDATE
		SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
		    close = EXCLUDED.close, volume = EXCLUDED.volume`)
	if err != nil {
		return fmt.Errorf("prepare bar upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("upsert bar %s %s: %w", ticker, b.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// UpsertDividends writes dividend events for ticker.
func (s *PostgresStore) UpsertDividends(ctx context.Context, ticker string, divs []Dividend) error {
	if len(divs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dividend upsert: %w", err)
	}
	defer tx.Rollback()

	for _, d := range divs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dividends (ticker, ex_date, amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (ticker, ex_date) DO UPDATE SET amount = EXCLUDED.amount`,
			ticker, d.ExDate, d.Amount)
		if err != nil {
			return fmt.Errorf("upsert dividend %s %s: %w", ticker, d.ExDate.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// Tickers lists every ticker present in the store.
func (s *PostgresStore) Tickers(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var tickers []string
	if err := s.db.SelectContext(ctx, &tickers, `SELECT DISTINCT ticker FROM price_bars ORDER BY ticker`); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	return tickers, nil
}
