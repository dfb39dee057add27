// Package simulation walks a strategy day by day over aligned market data and
// produces its NAV path, trades, and regime switches. Composite components are
// simulated recursively with a fresh ledger per level.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"regime-rotation-lab/internal/align"
	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/ledger"
	"regime-rotation-lab/internal/regime"
	"regime-rotation-lab/internal/schedule"
	"regime-rotation-lab/internal/signal"
	"regime-rotation-lab/internal/storage"
)

// Runner errors
var (
	// ErrMissingData is returned when a required ticker has no stored history.
	ErrMissingData = errors.New("missing market data")

	// ErrCircularDependency is returned when composite strategy references form
	// a cycle, at any depth, before any simulation math runs.
	ErrCircularDependency = errors.New("circular strategy dependency")
)

// weightEpsilon bounds the weight change below which no regime-switch event is
// emitted.
const weightEpsilon = 1e-4

const dateLayout = "2006-01-02"

// Runner executes simulations for strategy configs.
type Runner struct {
	strategyStore storage.StrategyStore
	marketData    storage.MarketDataStore
	verbose       bool
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	StrategyStore storage.StrategyStore
	MarketData    storage.MarketDataStore
	Verbose       bool
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		strategyStore: opts.StrategyStore,
		marketData:    opts.MarketData,
		verbose:       opts.Verbose,
	}
}

// runState threads the composite recursion: the resolving set detects cycles,
// the cache memoizes finished sub-strategy runs so diamond references simulate
// once.
type runState struct {
	resolving map[string]struct{}
	cache     map[string]*domain.SimulationResult
}

// Run loads a strategy by ID and simulates it over the full feasible window.
func (r *Runner) Run(ctx context.Context, strategyID string) (*domain.SimulationResult, error) {
	cfg, err := r.strategyStore.Get(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", strategyID, err)
	}
	return r.RunConfig(ctx, cfg)
}

// RunConfig simulates an already-loaded config.
func (r *Runner) RunConfig(ctx context.Context, cfg *domain.StrategyConfig) (*domain.SimulationResult, error) {
	state := &runState{
		resolving: make(map[string]struct{}),
		cache:     make(map[string]*domain.SimulationResult),
	}
	return r.simulate(ctx, cfg, state)
}

// simulate runs one strategy level.
// Steps:
//  1. Validate config and resolve the regime rule
//  2. Guard against composite cycles
//  3. Resolve component series (recursing into composites)
//  4. Align all series onto one date axis
//  5. Walk the axis day by day
func (r *Runner) simulate(ctx context.Context, cfg *domain.StrategyConfig, state *runState) (*domain.SimulationResult, error) {
	// 1. Validate config and resolve the rule before touching any data
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rule, err := regime.FromID(cfg.Rule)
	if err != nil {
		return nil, err
	}

	// 2. Cycle guard: a strategy re-entered while still resolving is a cycle
	if _, ok := state.resolving[cfg.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCircularDependency, cfg.ID)
	}
	state.resolving[cfg.ID] = struct{}{}
	defer delete(state.resolving, cfg.ID)

	// 3. Resolve every component's price series plus the benchmark
	series, required, err := r.resolveSeries(ctx, cfg, state)
	if err != nil {
		return nil, err
	}

	// 4. Build the shared date axis
	alignment, err := align.Build(series, required, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, err
	}

	r.log("simulating %s over %d days", cfg.ID, len(alignment.Dates()))

	// 5. Daily loop
	result, err := r.walk(cfg, rule, alignment)
	if err != nil {
		return nil, err
	}

	state.cache[cfg.ID] = result
	return result, nil
}

// resolveSeries collects the price series for every component of both baskets
// plus the benchmark. Composite components simulate their referenced strategy
// first and contribute its NAV path as a synthetic OHLC series. Plain tickers
// load concurrently; loads are independent reads.
func (r *Runner) resolveSeries(ctx context.Context, cfg *domain.StrategyConfig, state *runState) (map[string][]*domain.PricePoint, []string, error) {
	series := make(map[string][]*domain.PricePoint)
	var required []string
	var plain []string

	components := append(append([]domain.Component{}, cfg.RiskOn...), cfg.RiskOff...)
	seen := make(map[string]struct{})

	for _, comp := range components {
		key := comp.ResolvedTicker()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		required = append(required, key)

		if !comp.Composite() {
			plain = append(plain, key)
			continue
		}

		// cycle check before any sub-simulation math
		if _, resolving := state.resolving[comp.StrategyID]; resolving {
			return nil, nil, fmt.Errorf("%w: %s", ErrCircularDependency, comp.StrategyID)
		}

		sub, ok := state.cache[comp.StrategyID]
		if !ok {
			subCfg, err := r.strategyStore.Get(ctx, comp.StrategyID)
			if err != nil {
				return nil, nil, fmt.Errorf("load sub-strategy %s: %w", comp.StrategyID, err)
			}
			sub, err = r.simulate(ctx, subCfg, state)
			if err != nil {
				return nil, nil, err
			}
		}
		series[key] = sub.SyntheticSeries()
	}

	if _, ok := seen[cfg.BenchmarkTicker]; !ok {
		required = append(required, cfg.BenchmarkTicker)
		plain = append(plain, cfg.BenchmarkTicker)
	}

	type loadResult struct {
		ticker string
		points []*domain.PricePoint
		err    error
	}

	var wg sync.WaitGroup
	results := make([]loadResult, len(plain))
	for i, ticker := range plain {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			points, err := r.marketData.GetMarketData(ctx, ticker)
			results[i] = loadResult{ticker: ticker, points: points, err: err}
		}(i, ticker)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			if errors.Is(res.err, storage.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: %s", ErrMissingData, res.ticker)
			}
			return nil, nil, fmt.Errorf("load market data for %s: %w", res.ticker, res.err)
		}
		series[res.ticker] = res.points
	}

	return series, required, nil
}

// walk runs the daily loop over an aligned axis.
func (r *Runner) walk(cfg *domain.StrategyConfig, rule regime.Rule, alignment *align.Alignment) (*domain.SimulationResult, error) {
	result := &domain.SimulationResult{
		RunID:      uuid.NewString(),
		StrategyID: cfg.ID,
	}

	led := ledger.New(cfg.InitialCapital, cfg.CostRate(), cfg.PriceField)
	calc := signal.NewCalculator(alignment)
	scheduler := schedule.New(cfg.RebalanceFrequency)

	// the first risk-on component drives the regime signal
	driver := cfg.RiskOn[0].ResolvedTicker()

	weight := 1.0 // fully risk-on until the rule warms up
	lastExecutedWeight := -1.0
	seq := 0

	// decision day index → weight captured at decision time
	pending := make(map[int]float64)

	var prevDay, lastRebalance time.Time
	var benchStart, benchLast float64

	for i, date := range alignment.Dates() {
		day, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}

		points := alignment.PointsAt(date)
		nav := led.MarkToMarket(points)

		// buy-and-hold benchmark, carry-forward like the ledger
		if p, ok := points[cfg.BenchmarkTicker]; ok && p.Usable() {
			benchLast = p.Close
			if benchStart == 0 {
				benchStart = benchLast
			}
		}
		benchNAV := cfg.InitialCapital
		if benchStart > 0 {
			benchNAV = cfg.InitialCapital * benchLast / benchStart
		}

		// regime signal; warmup holds the previous weight
		if target, ok := rule.Evaluate(r.indicators(calc, rule, driver, date)); ok {
			if diff := target - weight; diff > weightEpsilon || diff < -weightEpsilon {
				result.RegimeSwitches = append(result.RegimeSwitches, domain.RegimeSwitchEvent{
					Date:       date,
					FromWeight: weight,
					ToWeight:   target,
				})
			}
			weight = target
		}

		// schedule: a due decision executes delay days later at that day's
		// prices, with the weight captured now
		if scheduler.IsDue(i, day, prevDay, lastRebalance) {
			pending[i+cfg.ExecutionDelayDays] = weight
		}

		rebalanced := false
		if w, ok := pending[i]; ok {
			delete(pending, i)

			skip := cfg.OnlyTradeOnSignalChange && lastExecutedWeight >= 0 && w == lastExecutedWeight
			if !skip {
				targets := buildTargets(nav, w, cfg)
				trades, skipped := led.Rebalance(date, result.RunID, seq, targets, points)
				seq += len(trades)
				result.Trades = append(result.Trades, trades...)
				for _, ticker := range skipped {
					r.log("%s: %s untradeable on %s, skipped", cfg.ID, ticker, date)
				}

				rebalanced = true
				lastExecutedWeight = w
				lastRebalance = day
			}
		}

		result.Series = append(result.Series, domain.SimDayRecord{
			Date:             date,
			NAV:              led.NAV().InexactFloat64(),
			BenchmarkNAV:     benchNAV,
			RiskOnWeightPct:  weight * 100,
			RiskOffWeightPct: (1 - weight) * 100,
			Rebalanced:       rebalanced,
		})

		prevDay = day
	}

	return result, nil
}

// indicators computes exactly the inputs the rule reads for the day.
func (r *Runner) indicators(calc *signal.Calculator, rule regime.Rule, driver, date string) regime.Indicators {
	in := regime.Indicators{
		MA:       make(map[int]float64),
		Momentum: make(map[int]float64),
	}
	in.Price, in.PriceOK = calc.LastClose(driver, date)

	for _, cond := range rule.Conditions {
		switch cond.Kind {
		case regime.KindPriceAboveMA:
			if ma, ok := calc.MovingAverage(driver, cond.Period, date); ok {
				in.MA[cond.Period] = ma
			}
		case regime.KindMomentumPositive:
			if mom, ok := calc.Momentum(driver, cond.Period, date); ok {
				in.Momentum[cond.Period] = mom
			}
		}
	}
	return in
}

// buildTargets converts NAV and the risk-on weight into per-ticker dollar
// targets across both baskets. Direction flips the sign for shorts.
func buildTargets(nav decimal.Decimal, riskOnWeight float64, cfg *domain.StrategyConfig) []ledger.Target {
	var targets []ledger.Target

	appendBasket := func(basket []domain.Component, basketWeight float64) {
		total := domain.BasketTotal(basket)
		if total == 0 {
			return
		}
		for _, comp := range basket {
			fraction := basketWeight * (comp.AllocationPct / total) * comp.Direction.Sign()
			targets = append(targets, ledger.Target{
				Ticker: comp.ResolvedTicker(),
				Value:  nav.Mul(decimal.NewFromFloat(fraction)),
			})
		}
	}

	appendBasket(cfg.RiskOn, riskOnWeight)
	appendBasket(cfg.RiskOff, 1-riskOnWeight)
	return targets
}

func (r *Runner) log(format string, args ...interface{}) {
	if r.verbose {
		log.Printf("[simulation] "+format, args...)
	}
}
