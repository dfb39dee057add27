// Package schedule decides on which simulated days a rebalance fires.
package schedule

import (
	"time"

	"regime-rotation-lab/internal/domain"
)

// Minimum elapsed days since the last executed rebalance before an alternating
// frequency may fire again. The bounds sit between one and two periods so that
// every other boundary crossing is taken regardless of month lengths.
const (
	biweeklyMinDays  = 14
	bimonthlyMinDays = 45
)

// Scheduler is the per-run rebalance cadence state machine.
// Day 0 of any simulation is always due.
type Scheduler struct {
	frequency domain.RebalanceFrequency
}

// New creates a scheduler for the configured frequency.
func New(frequency domain.RebalanceFrequency) *Scheduler {
	return &Scheduler{frequency: frequency}
}

// IsDue reports whether a rebalance decision fires on the given simulated day.
// prev is the previous simulated day (zero on day 0). lastRebalance is the day
// of the last rebalance decision that actually executed (zero until one has);
// only the alternating frequencies read it.
//
// Weekly detection relies on the ISO weekday number resetting downward when a
// new week starts. A closure spanning a weekend plus a holiday Monday can
// swallow that reset and under-fire; accepted approximation.
func (s *Scheduler) IsDue(dayIndex int, day, prev, lastRebalance time.Time) bool {
	if dayIndex == 0 {
		return true
	}

	switch s.frequency {
	case domain.FrequencyDaily:
		return true
	case domain.FrequencyWeekly:
		return newWeek(day, prev)
	case domain.FrequencyBiweekly:
		return newWeek(day, prev) && elapsedAtLeast(day, lastRebalance, biweeklyMinDays)
	case domain.FrequencyMonthly:
		return newMonth(day, prev)
	case domain.FrequencyBimonthly:
		return newMonth(day, prev) && elapsedAtLeast(day, lastRebalance, bimonthlyMinDays)
	case domain.FrequencyQuarterly:
		return day.Year() != prev.Year() || quarter(day) != quarter(prev)
	case domain.FrequencySemiannually:
		return day.Year() != prev.Year() || half(day) != half(prev)
	case domain.FrequencyAnnually:
		return day.Year() != prev.Year()
	default:
		return false
	}
}

func newWeek(day, prev time.Time) bool {
	return isoWeekday(day) < isoWeekday(prev)
}

func newMonth(day, prev time.Time) bool {
	return day.Year() != prev.Year() || day.Month() != prev.Month()
}

func elapsedAtLeast(day, lastRebalance time.Time, days int) bool {
	if lastRebalance.IsZero() {
		return true
	}
	return day.Sub(lastRebalance) >= time.Duration(days)*24*time.Hour
}

// isoWeekday maps Monday..Sunday to 1..7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func half(t time.Time) int {
	if t.Month() <= time.June {
		return 1
	}
	return 2
}
