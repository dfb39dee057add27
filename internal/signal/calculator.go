// Package signal computes trend indicators over aligned price history.
// All indicators read closes strictly before the as-of date: a value for day d
// never depends on day d's own bar or anything after it.
package signal

import (
	"sort"

	"regime-rotation-lab/internal/align"
)

// Calculator computes moving averages and momentum from an Alignment's
// usable close history. Missing and zero-close days are skipped, not zeroed.
type Calculator struct {
	alignment *align.Alignment
}

// NewCalculator creates a calculator over a prepared alignment.
func NewCalculator(a *align.Alignment) *Calculator {
	return &Calculator{alignment: a}
}

// MovingAverage returns the plain arithmetic mean of the period most recent
// valid closes strictly before asOf. Reports ok=false while fewer than period
// valid closes exist (warmup).
func (c *Calculator) MovingAverage(ticker string, period int, asOf string) (float64, bool) {
	if period <= 0 {
		return 0, false
	}

	closes := c.closesBefore(ticker, asOf)
	if len(closes) < period {
		return 0, false
	}

	sum := 0.0
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// Momentum returns close[t-1]/close[t-1-period] - 1 over the valid-close
// history, or ok=false when either endpoint is unavailable.
func (c *Calculator) Momentum(ticker string, period int, asOf string) (float64, bool) {
	if period <= 0 {
		return 0, false
	}

	closes := c.closesBefore(ticker, asOf)
	if len(closes) < period+1 {
		return 0, false
	}

	last := closes[len(closes)-1]
	base := closes[len(closes)-1-period]
	if base == 0 {
		return 0, false
	}
	return last/base - 1, true
}

// LastClose returns the most recent valid close strictly before asOf.
// Rules compare this against their indicators, so the comparison price and the
// indicator window are drawn from the same known-at-open information set.
func (c *Calculator) LastClose(ticker, asOf string) (float64, bool) {
	closes := c.closesBefore(ticker, asOf)
	if len(closes) == 0 {
		return 0, false
	}
	return closes[len(closes)-1], true
}

func (c *Calculator) closesBefore(ticker, asOf string) []float64 {
	dates, closes := c.alignment.CloseHistory(ticker)
	// first index at or after asOf == count of entries strictly before it
	n := sort.SearchStrings(dates, asOf)
	return closes[:n]
}
