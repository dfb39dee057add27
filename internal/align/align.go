// Package align merges per-ticker daily series into one sorted date axis.
// It decides which dates a simulation walks; gaps inside the window are left
// for the ledger and signal layers to bridge via last-known-price carry-forward.
package align

import (
	"errors"
	"fmt"
	"sort"

	"regime-rotation-lab/internal/domain"
)

// Errors returned by Build.
var (
	// ErrNoUsableData is returned when a required ticker has no usable points at all.
	ErrNoUsableData = errors.New("no usable price data")

	// ErrInsufficientRange is returned when the aligned window has fewer than
	// MinWindowDays dates.
	ErrInsufficientRange = errors.New("insufficient aligned date range")
)

// MinWindowDays is the smallest window a simulation will accept.
const MinWindowDays = 5

// Alignment is the prepared date axis plus per-ticker point lookups for one run.
// It is read-only after Build.
type Alignment struct {
	dates  []string
	points map[string]map[string]*domain.PricePoint

	// usable close history per ticker, date-ordered, for lookback windows
	closeDates  map[string][]string
	closeValues map[string][]float64
}

// Build unions the dates of all required tickers, finds the earliest feasible
// start (the first date at or after every ticker's first usable point), clamps
// the requested [start, end] bounds into the feasible range, and returns the
// resulting axis. ISO dates sort lexicographically in date order, so plain
// string sorting is correct.
func Build(series map[string][]*domain.PricePoint, required []string, start, end string) (*Alignment, error) {
	a := &Alignment{
		points:      make(map[string]map[string]*domain.PricePoint, len(required)),
		closeDates:  make(map[string][]string, len(required)),
		closeValues: make(map[string][]float64, len(required)),
	}

	dateSet := make(map[string]struct{})
	feasibleStart := ""

	for _, ticker := range required {
		byDate := make(map[string]*domain.PricePoint)
		var usableDates []string
		var usableCloses []float64

		for _, p := range series[ticker] {
			if !p.Usable() {
				// zero/negative closes are skipped, not treated as zero
				continue
			}
			byDate[p.Date] = p
			dateSet[p.Date] = struct{}{}
			usableDates = append(usableDates, p.Date)
			usableCloses = append(usableCloses, p.Close)
		}

		if len(usableDates) == 0 {
			return nil, fmt.Errorf("%w: ticker %s", ErrNoUsableData, ticker)
		}

		sortHistory(usableDates, usableCloses)

		a.points[ticker] = byDate
		a.closeDates[ticker] = usableDates
		a.closeValues[ticker] = usableCloses

		// the latest first-usable-date across tickers bounds the feasible start
		if usableDates[0] > feasibleStart {
			feasibleStart = usableDates[0]
		}
	}

	all := make([]string, 0, len(dateSet))
	for d := range dateSet {
		all = append(all, d)
	}
	sort.Strings(all)

	// clamp the requested window into [feasibleStart, last available date]
	lo := feasibleStart
	if start > lo {
		lo = start
	}
	hi := all[len(all)-1]
	if end != "" && end < hi {
		hi = end
	}

	from := sort.SearchStrings(all, lo)
	to := sort.SearchStrings(all, hi)
	if to < len(all) && all[to] == hi {
		to++
	}

	if to-from < MinWindowDays {
		return nil, fmt.Errorf("%w: %d usable dates in [%s, %s]", ErrInsufficientRange, to-from, lo, hi)
	}

	a.dates = all[from:to]
	return a, nil
}

// Dates returns the ordered simulation axis.
func (a *Alignment) Dates() []string {
	return a.dates
}

// PointAt returns the ticker's usable point on an exact date, if any.
func (a *Alignment) PointAt(ticker, date string) (*domain.PricePoint, bool) {
	p, ok := a.points[ticker][date]
	return p, ok
}

// PointsAt collects every required ticker's point for one date.
// Tickers with a gap on that date are simply absent from the map.
func (a *Alignment) PointsAt(date string) map[string]*domain.PricePoint {
	out := make(map[string]*domain.PricePoint, len(a.points))
	for ticker, byDate := range a.points {
		if p, ok := byDate[date]; ok {
			out[ticker] = p
		}
	}
	return out
}

// CloseHistory returns the ticker's full usable close history in date order.
// The signal layer slices lookback windows out of it.
func (a *Alignment) CloseHistory(ticker string) (dates []string, closes []float64) {
	return a.closeDates[ticker], a.closeValues[ticker]
}

func sortHistory(dates []string, closes []float64) {
	idx := make([]int, len(dates))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return dates[idx[i]] < dates[idx[j]] })

	sortedDates := make([]string, len(dates))
	sortedCloses := make([]float64, len(closes))
	for i, j := range idx {
		sortedDates[i] = dates[j]
		sortedCloses[i] = closes[j]
	}
	copy(dates, sortedDates)
	copy(closes, sortedCloses)
}
