package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation errors.
var (
	ErrInvalidConfig = errors.New("invalid strategy config")
	ErrUnknownRule   = errors.New("unknown regime rule")
)

// Direction is the sign of a component position.
type Direction string

// Direction constants.
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign returns +1 for long components and -1 for short components.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// RebalanceFrequency controls how often rebalance decisions fire.
type RebalanceFrequency string

// RebalanceFrequency constants.
const (
	FrequencyDaily        RebalanceFrequency = "DAILY"
	FrequencyWeekly       RebalanceFrequency = "WEEKLY"
	FrequencyBiweekly     RebalanceFrequency = "BIWEEKLY"
	FrequencyMonthly      RebalanceFrequency = "MONTHLY"
	FrequencyBimonthly    RebalanceFrequency = "BIMONTHLY"
	FrequencyQuarterly    RebalanceFrequency = "QUARTERLY"
	FrequencySemiannually RebalanceFrequency = "SEMIANNUALLY"
	FrequencyAnnually     RebalanceFrequency = "ANNUALLY"
)

// RuleID identifies one of the closed set of regime rules.
type RuleID string

// RuleID constants.
const (
	RuleSlowTriple            RuleID = "SLOW_TRIPLE"
	RuleQuickTriple           RuleID = "QUICK_TRIPLE"
	RuleMacroVolAdaptive      RuleID = "MACRO_VOL_ADAPTIVE"
	RuleMultiTimeframeSentinel RuleID = "MULTI_TIMEFRAME_SENTINEL"
)

// Component is one asset slot inside a basket.
// When StrategyID is set the component is composite: its price series is the
// referenced strategy's simulated NAV path rather than a traded instrument.
type Component struct {
	Ticker        string    `json:"ticker"`
	StrategyID    string    `json:"strategy_id,omitempty"`
	AllocationPct float64   `json:"allocation_pct"` // relative weight within the basket
	Direction     Direction `json:"direction"`
}

// Composite reports whether the component references another strategy.
func (c Component) Composite() bool {
	return c.StrategyID != ""
}

// ResolvedTicker returns the lookup key for the component's price series:
// the raw symbol, or a synthetic ticker for composite references.
func (c Component) ResolvedTicker() string {
	if c.Composite() {
		return "strategy:" + c.StrategyID
	}
	return c.Ticker
}

// StrategyConfig describes one rotation strategy. Immutable for the duration of a run.
type StrategyConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	RiskOn  []Component `json:"risk_on"`
	RiskOff []Component `json:"risk_off"`

	BenchmarkTicker string `json:"benchmark_ticker"`

	RebalanceFrequency RebalanceFrequency `json:"rebalance_frequency"`
	PriceField         PriceField         `json:"price_field"`

	InitialCapital     float64 `json:"initial_capital"`
	TransactionCostPct float64 `json:"transaction_cost_pct"`
	SlippagePct        float64 `json:"slippage_pct"`
	ExecutionDelayDays int     `json:"execution_delay_days"`

	Rule                    RuleID `json:"rule"`
	OnlyTradeOnSignalChange bool   `json:"only_trade_on_signal_change"`

	// Optional analysis window bounds, ISO "YYYY-MM-DD". Empty = full history.
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Validate checks the config once, before any simulation math runs.
func (c *StrategyConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidConfig)
	}
	if len(c.RiskOn) == 0 {
		return fmt.Errorf("%w: risk-on basket is empty", ErrInvalidConfig)
	}
	if c.BenchmarkTicker == "" {
		return fmt.Errorf("%w: missing benchmark ticker", ErrInvalidConfig)
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be > 0", ErrInvalidConfig)
	}
	if c.TransactionCostPct < 0 || c.SlippagePct < 0 {
		return fmt.Errorf("%w: cost percentages must be >= 0", ErrInvalidConfig)
	}
	if c.ExecutionDelayDays < 0 {
		return fmt.Errorf("%w: execution delay must be >= 0", ErrInvalidConfig)
	}
	switch c.RebalanceFrequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyBimonthly, FrequencyQuarterly, FrequencySemiannually, FrequencyAnnually:
	default:
		return fmt.Errorf("%w: unknown rebalance frequency %q", ErrInvalidConfig, c.RebalanceFrequency)
	}
	switch c.PriceField {
	case PriceFieldOpen, PriceFieldHigh, PriceFieldLow, PriceFieldClose, PriceFieldAvg:
	default:
		return fmt.Errorf("%w: unknown price field %q", ErrInvalidConfig, c.PriceField)
	}
	switch c.Rule {
	case RuleSlowTriple, RuleQuickTriple, RuleMacroVolAdaptive, RuleMultiTimeframeSentinel:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRule, c.Rule)
	}
	for _, basket := range [][]Component{c.RiskOn, c.RiskOff} {
		for _, comp := range basket {
			if comp.Ticker == "" && comp.StrategyID == "" {
				return fmt.Errorf("%w: component has neither ticker nor strategy reference", ErrInvalidConfig)
			}
			if comp.AllocationPct <= 0 {
				return fmt.Errorf("%w: component %s allocation must be > 0", ErrInvalidConfig, comp.Ticker)
			}
			switch comp.Direction {
			case DirectionLong, DirectionShort:
			default:
				return fmt.Errorf("%w: component %s has unknown direction %q", ErrInvalidConfig, comp.Ticker, comp.Direction)
			}
		}
	}
	return nil
}

// CostRate returns the combined per-trade friction as a fraction of notional,
// as a decimal so ledger accounting stays exact.
func (c *StrategyConfig) CostRate() decimal.Decimal {
	return decimal.NewFromFloat((c.TransactionCostPct + c.SlippagePct) / 100)
}

// BasketTotal sums a basket's allocation percentages.
func BasketTotal(basket []Component) float64 {
	total := 0.0
	for _, comp := range basket {
		total += comp.AllocationPct
	}
	return total
}
