// Package reporting renders finished simulation runs as Markdown and CSV.
package reporting

import (
	"time"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/metrics"
)

// Report is the render-ready view of one simulation run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	// Strategy
	StrategyID   string
	StrategyName string
	Rule         string
	Frequency    string

	// Window
	WindowStart string
	WindowEnd   string

	Summary *metrics.Summary

	RegimeSwitches []domain.RegimeSwitchEvent
	Trades         []*domain.TradeRecord
}

// Build assembles a Report from a finished run and its derived statistics.
func Build(cfg *domain.StrategyConfig, result *domain.SimulationResult, summary *metrics.Summary) *Report {
	r := &Report{
		GeneratedAt:    time.Now().UTC(),
		RunID:          result.RunID,
		StrategyID:     cfg.ID,
		StrategyName:   cfg.Name,
		Rule:           string(cfg.Rule),
		Frequency:      string(cfg.RebalanceFrequency),
		Summary:        summary,
		RegimeSwitches: result.RegimeSwitches,
		Trades:         result.Trades,
	}
	if len(result.Series) > 0 {
		r.WindowStart = result.Series[0].Date
		r.WindowEnd = result.Series[len(result.Series)-1].Date
	}
	return r
}
