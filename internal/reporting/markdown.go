package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", r.StrategyName))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))

	// Strategy Overview
	sb.WriteString("## Strategy\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Strategy ID | %s |\n", r.StrategyID))
	sb.WriteString(fmt.Sprintf("| Regime Rule | %s |\n", r.Rule))
	sb.WriteString(fmt.Sprintf("| Rebalance Frequency | %s |\n", r.Frequency))
	sb.WriteString(fmt.Sprintf("| Window | %s to %s |\n", r.WindowStart, r.WindowEnd))
	sb.WriteString(fmt.Sprintf("| Simulated Days | %d |\n", r.Summary.Days))
	sb.WriteString("\n")

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", r.Summary.TotalReturn*100))
	sb.WriteString(fmt.Sprintf("| Benchmark Return | %.2f%% |\n", r.Summary.BenchmarkReturn*100))
	sb.WriteString(fmt.Sprintf("| CAGR | %.2f%% |\n", r.Summary.CAGR*100))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", r.Summary.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("| Annualized Volatility | %.2f%% |\n", r.Summary.Volatility*100))
	sb.WriteString(fmt.Sprintf("| Sharpe | %.2f |\n", r.Summary.Sharpe))
	sb.WriteString(fmt.Sprintf("| Rebalances | %d |\n", r.Summary.Rebalances))
	sb.WriteString(fmt.Sprintf("| Regime Switches | %d |\n", r.Summary.RegimeSwitches))
	sb.WriteString("\n")

	// Regime Switches
	sb.WriteString("## Regime Switches\n\n")
	if len(r.RegimeSwitches) > 0 {
		sb.WriteString("| Date | From | To |\n")
		sb.WriteString("|------|------|----|\n")
		for _, sw := range r.RegimeSwitches {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f |\n", sw.Date, sw.FromWeight, sw.ToWeight))
		}
	} else {
		sb.WriteString("No regime switches in the window.\n")
	}
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Seq | Date | Ticker | Side | Notional | Shares | Price |\n")
		sb.WriteString("|-----|------|--------|------|----------|--------|-------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
				t.Seq, t.Date, t.Ticker, t.Side,
				t.Notional.StringFixed(2), t.Shares.StringFixed(4), t.Price.StringFixed(4)))
		}
	} else {
		sb.WriteString("No trades executed.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
