package reporting

import (
	"fmt"
	"strings"

	"regime-rotation-lab/internal/domain"
)

// RenderNavCSV renders a run's daily series as CSV.
func RenderNavCSV(series []domain.SimDayRecord) string {
	var sb strings.Builder

	sb.WriteString("date,nav,benchmark_nav,risk_on_pct,risk_off_pct,rebalanced\n")
	for _, day := range series {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%.2f,%.2f,%t\n",
			day.Date, day.NAV, day.BenchmarkNAV,
			day.RiskOnWeightPct, day.RiskOffWeightPct, day.Rebalanced))
	}

	return sb.String()
}

// RenderTradesCSV renders a run's trades as CSV.
func RenderTradesCSV(trades []*domain.TradeRecord) string {
	var sb strings.Builder

	sb.WriteString("run_id,seq,date,ticker,side,notional,shares,price\n")
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%s,%s,%s\n",
			t.RunID, t.Seq, t.Date, t.Ticker, t.Side,
			t.Notional.StringFixed(6), t.Shares.StringFixed(6), t.Price.StringFixed(6)))
	}

	return sb.String()
}
