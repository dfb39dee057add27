package domain

// PricePoint represents one daily OHLC bar for a ticker.
// Dates are ISO calendar days ("YYYY-MM-DD"), unique per ticker.
// A point is usable only when Close > 0; points are immutable once ingested.
type PricePoint struct {
	Date   string  // ISO day, e.g. "2024-03-28"
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Usable reports whether the point can participate in signal or NAV math.
func (p *PricePoint) Usable() bool {
	return p != nil && p.Close > 0
}

// PriceField selects which bar field a trade executes at.
// Signals always use Close; execution price is a separate, configurable choice.
type PriceField string

// PriceField constants.
const (
	PriceFieldOpen  PriceField = "open"
	PriceFieldHigh  PriceField = "high"
	PriceFieldLow   PriceField = "low"
	PriceFieldClose PriceField = "close"
	PriceFieldAvg   PriceField = "avg" // mean of high, low, close
)

// ExecutionPrice returns the configured execution price for the bar.
// Returns 0 when the field is unusable, which marks the ticker untradeable that day.
func (p *PricePoint) ExecutionPrice(field PriceField) float64 {
	if p == nil {
		return 0
	}
	switch field {
	case PriceFieldOpen:
		return p.Open
	case PriceFieldHigh:
		return p.High
	case PriceFieldLow:
		return p.Low
	case PriceFieldAvg:
		return (p.High + p.Low + p.Close) / 3
	default:
		return p.Close
	}
}
