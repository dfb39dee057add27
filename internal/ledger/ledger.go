// Package ledger holds one run's cash and share positions, marks them to
// market daily, and executes rebalancing trades against target dollar values.
// All accounting is done in decimals; float prices convert at the boundary.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"regime-rotation-lab/internal/domain"
)

// dustThreshold is the $1 no-op band that suppresses dust trades: a position
// within a dollar of its target is left alone.
var dustThreshold = decimal.NewFromInt(1)

// Target is one ticker's desired dollar value after a rebalance.
// Negative values are short targets.
type Target struct {
	Ticker string
	Value  decimal.Decimal
}

// Ledger is the per-run portfolio state. One instance per simulation run;
// recursive sub-strategy runs each get their own.
type Ledger struct {
	cash      decimal.Decimal
	holdings  map[string]decimal.Decimal // ticker → shares, negative = short
	lastPrice map[string]decimal.Decimal // close carry-forward for marking

	costRate   decimal.Decimal // (txCostPct + slippagePct) / 100
	priceField domain.PriceField
}

// New creates a ledger holding the initial capital entirely in cash.
func New(initialCapital float64, costRate decimal.Decimal, priceField domain.PriceField) *Ledger {
	return &Ledger{
		cash:       decimal.NewFromFloat(initialCapital),
		holdings:   make(map[string]decimal.Decimal),
		lastPrice:  make(map[string]decimal.Decimal),
		costRate:   costRate,
		priceField: priceField,
	}
}

// MarkToMarket absorbs the day's usable closes and returns the resulting NAV.
// Tickers without a point today keep their last known price rather than being
// zeroed or halting the run.
func (l *Ledger) MarkToMarket(points map[string]*domain.PricePoint) decimal.Decimal {
	for ticker, p := range points {
		if p.Usable() {
			l.lastPrice[ticker] = decimal.NewFromFloat(p.Close)
		}
	}
	return l.NAV()
}

// NAV is cash plus every position marked at its last known price.
func (l *Ledger) NAV() decimal.Decimal {
	nav := l.cash
	for ticker, shares := range l.holdings {
		price, ok := l.lastPrice[ticker]
		if !ok {
			continue
		}
		nav = nav.Add(shares.Mul(price))
	}
	return nav
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Holding returns the share quantity for a ticker (zero when not held).
func (l *Ledger) Holding(ticker string) decimal.Decimal {
	return l.holdings[ticker]
}

// Rebalance trades toward the given targets in two ordered phases, sells
// before buys, so sale proceeds fund the purchases. Transaction cost and
// slippage come out of cash and are never rebated. Cash cannot go negative:
// buys shrink to what the available cash covers including their cost.
//
// Execution uses the configured price field for today's bar; a ticker whose
// execution price is zero or missing is untradeable today and is skipped on
// that side, reported in skipped.
func (l *Ledger) Rebalance(date, runID string, seqStart int, targets []Target, points map[string]*domain.PricePoint) (trades []*domain.TradeRecord, skipped []string) {
	targetValue := make(map[string]decimal.Decimal, len(targets))
	for _, t := range targets {
		targetValue[t.Ticker] = targetValue[t.Ticker].Add(t.Value)
	}
	// positions no longer targeted unwind to zero
	for ticker, shares := range l.holdings {
		if _, ok := targetValue[ticker]; !ok && !shares.IsZero() {
			targetValue[ticker] = decimal.Zero
		}
	}

	tickers := make([]string, 0, len(targetValue))
	for ticker := range targetValue {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	seq := seqStart
	record := func(side domain.TradeSide, ticker string, notional, shares, price decimal.Decimal) {
		trades = append(trades, &domain.TradeRecord{
			RunID:    runID,
			Seq:      seq,
			Date:     date,
			Ticker:   ticker,
			Side:     side,
			Notional: notional,
			Shares:   shares,
			Price:    price,
		})
		seq++
	}

	// Sell phase: free cash wherever current value exceeds target.
	for _, ticker := range tickers {
		price, ok := l.executionPrice(ticker, points)
		if !ok {
			if l.holdings[ticker].Mul(l.lastKnown(ticker)).Sub(targetValue[ticker]).GreaterThan(dustThreshold) {
				skipped = append(skipped, ticker)
			}
			continue
		}

		current := l.holdings[ticker].Mul(price)
		excess := current.Sub(targetValue[ticker])
		if excess.LessThanOrEqual(dustThreshold) {
			continue
		}

		cost := excess.Mul(l.costRate)
		sharesSold := excess.Div(price)
		l.holdings[ticker] = l.holdings[ticker].Sub(sharesSold)
		l.cash = l.cash.Add(excess.Sub(cost))
		record(domain.TradeSideSell, ticker, excess, sharesSold, price)
	}

	// Buy phase: spend remaining cash toward underweight targets.
	onePlusCost := decimal.NewFromInt(1).Add(l.costRate)
	for _, ticker := range tickers {
		price, ok := l.executionPrice(ticker, points)
		if !ok {
			if targetValue[ticker].Sub(l.holdings[ticker].Mul(l.lastKnown(ticker))).GreaterThan(dustThreshold) {
				skipped = append(skipped, ticker)
			}
			continue
		}

		current := l.holdings[ticker].Mul(price)
		desired := targetValue[ticker].Sub(current)
		if desired.LessThanOrEqual(dustThreshold) {
			continue
		}

		// shrink to available cash including the cost of the buy itself;
		// the constrained branch spends the cash balance exactly so division
		// rounding can never overdraw it
		spend := desired.Mul(onePlusCost)
		if spend.GreaterThan(l.cash) {
			spend = l.cash
			desired = spend.Div(onePlusCost)
		}
		if desired.LessThanOrEqual(dustThreshold) {
			continue
		}

		sharesBought := desired.Div(price)
		l.holdings[ticker] = l.holdings[ticker].Add(sharesBought)
		l.cash = l.cash.Sub(spend)
		record(domain.TradeSideBuy, ticker, desired, sharesBought, price)
	}

	for ticker, shares := range l.holdings {
		if shares.IsZero() {
			delete(l.holdings, ticker)
		}
	}

	return trades, skipped
}

func (l *Ledger) executionPrice(ticker string, points map[string]*domain.PricePoint) (decimal.Decimal, bool) {
	p, ok := points[ticker]
	if !ok {
		return decimal.Decimal{}, false
	}
	price := p.ExecutionPrice(l.priceField)
	if price <= 0 {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(price), true
}

func (l *Ledger) lastKnown(ticker string) decimal.Decimal {
	return l.lastPrice[ticker]
}
