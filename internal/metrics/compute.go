// Package metrics derives summary statistics from a finished simulation's
// daily NAV series. These are reporting concerns; nothing in the engine reads
// them back.
package metrics

import (
	"math"

	"regime-rotation-lab/internal/domain"
)

// tradingDaysPerYear annualizes daily statistics.
const tradingDaysPerYear = 252

// Daily returns outside this band are excluded from volatility: they are data
// artifacts (splits, bad prints surviving cleaning), not market moves.
const (
	minDailyReturn = -0.90
	maxDailyReturn = 3.00
)

// Summary holds the derived statistics of one run.
type Summary struct {
	Days int `json:"days"`

	TotalReturn     float64 `json:"total_return"`     // end/start - 1
	BenchmarkReturn float64 `json:"benchmark_return"` // buy-and-hold over the same window
	CAGR            float64 `json:"cagr"`
	MaxDrawdown     float64 `json:"max_drawdown"` // worst peak-to-trough NAV decline, as a positive fraction
	Volatility      float64 `json:"volatility"`   // annualized stddev of filtered daily returns
	Sharpe          float64 `json:"sharpe"`       // CAGR / volatility, zero risk-free rate

	Rebalances     int `json:"rebalances"`
	RegimeSwitches int `json:"regime_switches"`
}

// Compute derives a Summary from a finished run. An empty or degenerate series
// (no days, non-positive starting NAV) yields a zero Summary.
func Compute(result *domain.SimulationResult) *Summary {
	s := &Summary{RegimeSwitches: len(result.RegimeSwitches)}

	series := result.Series
	s.Days = len(series)
	if s.Days == 0 {
		return s
	}

	for _, day := range series {
		if day.Rebalanced {
			s.Rebalances++
		}
	}

	start := series[0].NAV
	end := series[len(series)-1].NAV
	if start <= 0 {
		return s
	}

	s.TotalReturn = end/start - 1
	if benchStart := series[0].BenchmarkNAV; benchStart > 0 {
		s.BenchmarkReturn = series[len(series)-1].BenchmarkNAV/benchStart - 1
	}
	s.CAGR = math.Pow(end/start, tradingDaysPerYear/float64(s.Days)) - 1
	s.MaxDrawdown = maxDrawdown(series)
	s.Volatility = annualizedVolatility(series)
	if s.Volatility > 0 {
		s.Sharpe = s.CAGR / s.Volatility
	}
	return s
}

// maxDrawdown is the worst fractional decline from a running NAV peak.
func maxDrawdown(series []domain.SimDayRecord) float64 {
	peak := 0.0
	worst := 0.0
	for _, day := range series {
		if day.NAV > peak {
			peak = day.NAV
		}
		if peak > 0 {
			if dd := (peak - day.NAV) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// annualizedVolatility is the sample stddev of daily returns scaled by √252.
// Returns outside (minDailyReturn, maxDailyReturn) and NaN/Inf values are
// excluded rather than clamped.
func annualizedVolatility(series []domain.SimDayRecord) float64 {
	var returns []float64
	for i := 1; i < len(series); i++ {
		prev := series[i-1].NAV
		if prev <= 0 {
			continue
		}
		r := series[i].NAV/prev - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		if r <= minDailyReturn || r >= maxDailyReturn {
			continue
		}
		returns = append(returns, r)
	}

	n := len(returns)
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, r := range returns {
		diff := r - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq/float64(n-1)) * math.Sqrt(tradingDaysPerYear)
}
