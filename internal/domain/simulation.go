package domain

import "github.com/shopspring/decimal"

// TradeSide is the direction of an executed trade.
type TradeSide string

// TradeSide constants.
const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// SimDayRecord is one simulated day of output, appended in date order.
// Immutable once appended.
type SimDayRecord struct {
	Date            string  // ISO day
	NAV             float64 // portfolio value after the day's accounting
	BenchmarkNAV    float64 // buy-and-hold benchmark, normalized to initial capital
	RiskOnWeightPct float64 // target risk-on allocation, 0..100
	RiskOffWeightPct float64 // complement, RiskOnWeightPct + RiskOffWeightPct == 100
	Rebalanced      bool    // true when a rebalance executed this day
}

// TradeRecord is one executed simulated trade. The ledger is append-only.
type TradeRecord struct {
	RunID    string          // simulation run this trade belongs to
	Seq      int             // order of execution within the run
	Date     string          // ISO execution day
	Ticker   string
	Side     TradeSide
	Notional decimal.Decimal // absolute dollar value traded
	Shares   decimal.Decimal // share quantity traded (absolute)
	Price    decimal.Decimal // execution price per share
}

// RegimeSwitchEvent records a change in the computed risk-on weight.
// Emitted only when the weight moves beyond a small epsilon from the prior day.
type RegimeSwitchEvent struct {
	Date       string
	FromWeight float64
	ToWeight   float64
}

// NavPoint is one persisted point of a run's NAV path.
type NavPoint struct {
	RunID        string
	Date         string
	NAV          float64
	BenchmarkNAV float64
}

// SimulationResult bundles everything one run emits.
type SimulationResult struct {
	RunID      string
	StrategyID string

	Series         []SimDayRecord
	Trades         []*TradeRecord
	RegimeSwitches []RegimeSwitchEvent
}

// NavSeries converts the day series into persistable NAV points.
func (r *SimulationResult) NavSeries() []*NavPoint {
	points := make([]*NavPoint, 0, len(r.Series))
	for _, day := range r.Series {
		points = append(points, &NavPoint{
			RunID:        r.RunID,
			Date:         day.Date,
			NAV:          day.NAV,
			BenchmarkNAV: day.BenchmarkNAV,
		})
	}
	return points
}

// SyntheticSeries converts a finished run's NAV path into a synthetic OHLC
// series (open=high=low=close=NAV, volume=0) so composite strategies can
// consume it as if it were fetched market data.
func (r *SimulationResult) SyntheticSeries() []*PricePoint {
	points := make([]*PricePoint, 0, len(r.Series))
	for _, day := range r.Series {
		points = append(points, &PricePoint{
			Date:  day.Date,
			Open:  day.NAV,
			High:  day.NAV,
			Low:   day.NAV,
			Close: day.NAV,
		})
	}
	return points
}
