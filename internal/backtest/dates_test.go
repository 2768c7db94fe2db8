package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Doxinos/kavastu-tracker/internal/config"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestRebalanceDatesMonthly(t *testing.T) {
	got := RebalanceDates(d(2020, 1, 15), d(2020, 5, 1), config.Monthly)
	want := []time.Time{
		d(2020, 1, 15),
		d(2020, 2, 1),
		d(2020, 3, 1),
		d(2020, 4, 1),
		d(2020, 5, 1),
	}
	assert.Equal(t, want, got, "mid-month start snaps to first-of-month stepping")
}

func TestRebalanceDatesMonthlyYearRollover(t *testing.T) {
	got := RebalanceDates(d(2020, 11, 1), d(2021, 2, 1), config.Monthly)
	want := []time.Time{d(2020, 11, 1), d(2020, 12, 1), d(2021, 1, 1), d(2021, 2, 1)}
	assert.Equal(t, want, got)
}

func TestRebalanceDatesWeekly(t *testing.T) {
	got := RebalanceDates(d(2020, 1, 1), d(2020, 1, 29), config.Weekly)
	want := []time.Time{
		d(2020, 1, 1), d(2020, 1, 8), d(2020, 1, 15), d(2020, 1, 22), d(2020, 1, 29),
	}
	assert.Equal(t, want, got)
}

func TestRebalanceDatesExcludesPastEnd(t *testing.T) {
	got := RebalanceDates(d(2020, 1, 1), d(2020, 1, 20), config.Weekly)
	assert.Equal(t, d(2020, 1, 15), got[len(got)-1])
}

func TestPeriodsPerYear(t *testing.T) {
	assert.Equal(t, 12.0, PeriodsPerYear(config.Monthly))
	assert.Equal(t, 52.0, PeriodsPerYear(config.Weekly))
}
