package backtest

import (
	"time"

	"github.com/Doxinos/kavastu-tracker/internal/config"
)

// RebalanceDates expands a run window into the rebalance schedule. The start
// date itself is always the first rebalance. Monthly runs then step to the
// first calendar day of each following month; weekly runs use a fixed 7-day
// stride. Dates after end are excluded.
func RebalanceDates(start, end time.Time, freq config.Frequency) []time.Time {
	var dates []time.Time
	d := start
	for !d.After(end) {
		dates = append(dates, d)
		switch freq {
		case config.Weekly:
			d = d.AddDate(0, 0, 7)
		default:
			d = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
		}
	}
	return dates
}

// PeriodsPerYear returns the annualization factor for a schedule.
func PeriodsPerYear(freq config.Frequency) float64 {
	if freq == config.Weekly {
		return 52
	}
	return 12
}
