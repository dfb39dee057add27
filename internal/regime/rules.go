// Package regime maps trend indicators to a target risk-on weight in [0,1].
// Rules form a closed set: each is a fixed linear combination of boolean
// conditions whose weights sum to 1.0 when every input is available.
package regime

import (
	"fmt"

	"regime-rotation-lab/internal/domain"
)

// ConditionKind selects the indicator a condition reads.
type ConditionKind string

// ConditionKind constants.
const (
	// KindPriceAboveMA contributes when the last known close is above the MA of
	// the configured period.
	KindPriceAboveMA ConditionKind = "PRICE_ABOVE_MA"

	// KindMomentumPositive contributes when momentum over the configured period
	// is positive.
	KindMomentumPositive ConditionKind = "MOMENTUM_POSITIVE"
)

// Condition is one weighted boolean contribution to the risk-on weight.
type Condition struct {
	Kind   ConditionKind
	Period int
	Weight float64
}

// Rule is a resolved, immutable rule definition.
type Rule struct {
	ID         domain.RuleID
	Conditions []Condition
}

var rules = map[domain.RuleID]Rule{
	domain.RuleSlowTriple: {
		ID: domain.RuleSlowTriple,
		Conditions: []Condition{
			{Kind: KindPriceAboveMA, Period: 50, Weight: 0.25},
			{Kind: KindPriceAboveMA, Period: 100, Weight: 0.50},
			{Kind: KindPriceAboveMA, Period: 200, Weight: 0.25},
		},
	},
	domain.RuleQuickTriple: {
		ID: domain.RuleQuickTriple,
		Conditions: []Condition{
			{Kind: KindPriceAboveMA, Period: 25, Weight: 0.25},
			{Kind: KindPriceAboveMA, Period: 50, Weight: 0.50},
			{Kind: KindPriceAboveMA, Period: 100, Weight: 0.25},
		},
	},
	domain.RuleMacroVolAdaptive: {
		ID: domain.RuleMacroVolAdaptive,
		Conditions: []Condition{
			{Kind: KindPriceAboveMA, Period: 75, Weight: 0.40},
			{Kind: KindMomentumPositive, Period: 63, Weight: 0.35},
			{Kind: KindMomentumPositive, Period: 126, Weight: 0.25},
		},
	},
	domain.RuleMultiTimeframeSentinel: {
		ID: domain.RuleMultiTimeframeSentinel,
		Conditions: []Condition{
			{Kind: KindPriceAboveMA, Period: 20, Weight: 0.20},
			{Kind: KindPriceAboveMA, Period: 50, Weight: 0.20},
			{Kind: KindPriceAboveMA, Period: 100, Weight: 0.20},
			{Kind: KindMomentumPositive, Period: 21, Weight: 0.20},
			{Kind: KindMomentumPositive, Period: 63, Weight: 0.20},
		},
	},
}

// FromID resolves a rule once, at config validation time.
func FromID(id domain.RuleID) (Rule, error) {
	rule, ok := rules[id]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", domain.ErrUnknownRule, id)
	}
	return rule, nil
}

// Indicators carries the day's computed inputs for one driver ticker.
// A period absent from a map means the indicator is still warming up.
type Indicators struct {
	Price    float64 // last known close strictly before the current day
	PriceOK  bool
	MA       map[int]float64
	Momentum map[int]float64
}

// Evaluate returns the target risk-on weight for the day. When any required
// input is unavailable it reports ok=false and the caller holds the previous
// day's weight — the warmup policy, not an error.
func (r Rule) Evaluate(in Indicators) (float64, bool) {
	weight := 0.0
	for _, c := range r.Conditions {
		switch c.Kind {
		case KindPriceAboveMA:
			if !in.PriceOK {
				return 0, false
			}
			ma, ok := in.MA[c.Period]
			if !ok {
				return 0, false
			}
			if in.Price > ma {
				weight += c.Weight
			}
		case KindMomentumPositive:
			mom, ok := in.Momentum[c.Period]
			if !ok {
				return 0, false
			}
			if mom > 0 {
				weight += c.Weight
			}
		}
	}
	return weight, true
}
