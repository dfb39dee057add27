// Package orchestrator provides batch execution over a strategy store.
// It coordinates: simulation → metrics → persistence for every stored strategy.
package orchestrator

import (
	"context"
	"fmt"
	"log"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/metrics"
	"regime-rotation-lab/internal/simulation"
	"regime-rotation-lab/internal/storage"
)

// Orchestrator runs every stored strategy through the simulation engine and
// persists the results through whichever stores are configured.
type Orchestrator struct {
	strategyStore storage.StrategyStore
	marketData    storage.MarketDataStore
	tradeStore    storage.TradeRecordStore
	navStore      storage.NavSeriesStore

	verbose bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	StrategyStore storage.StrategyStore
	MarketData    storage.MarketDataStore

	// Optional persistence; nil skips that output
	TradeStore storage.TradeRecordStore
	NavStore   storage.NavSeriesStore

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		strategyStore: opts.StrategyStore,
		marketData:    opts.MarketData,
		tradeStore:    opts.TradeStore,
		navStore:      opts.NavStore,
		verbose:       opts.Verbose,
	}
}

// RunSummary is one finished strategy run.
type RunSummary struct {
	StrategyID string           `json:"strategy_id"`
	RunID      string           `json:"run_id"`
	Summary    *metrics.Summary `json:"summary"`
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	StrategiesProcessed int
	Runs                []RunSummary
	Errors              []string
}

// Run simulates every stored strategy.
// Phases:
//  1. List strategies
//  2. Simulate each and derive its statistics
//  3. Persist trades and NAV series where stores are configured
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	o.log("Phase 1: Loading strategies...")
	configs, err := o.strategyStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load strategies) failed: %w", err)
	}
	result.StrategiesProcessed = len(configs)
	o.log("  Found %d strategies", len(configs))

	if len(configs) == 0 {
		return result, nil
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		StrategyStore: o.strategyStore,
		MarketData:    o.marketData,
		Verbose:       o.verbose,
	})

	o.log("Phase 2: Running simulations...")
	for _, cfg := range configs {
		simResult, err := runner.RunConfig(ctx, cfg)
		if err != nil {
			// A cycle or missing ticker fails that strategy, not the batch
			result.Errors = append(result.Errors, fmt.Sprintf("simulate %s: %v", cfg.ID, err))
			continue
		}

		if err := o.persist(ctx, simResult); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persist %s: %v", cfg.ID, err))
			continue
		}

		result.Runs = append(result.Runs, RunSummary{
			StrategyID: cfg.ID,
			RunID:      simResult.RunID,
			Summary:    metrics.Compute(simResult),
		})
	}
	o.log("  Completed %d runs (%d errors)", len(result.Runs), len(result.Errors))

	return result, nil
}

func (o *Orchestrator) persist(ctx context.Context, simResult *domain.SimulationResult) error {
	if o.tradeStore != nil && len(simResult.Trades) > 0 {
		if err := o.tradeStore.InsertBulk(ctx, simResult.Trades); err != nil {
			return fmt.Errorf("insert trades: %w", err)
		}
	}
	if o.navStore != nil {
		if err := o.navStore.InsertBulk(ctx, simResult.NavSeries()); err != nil {
			return fmt.Errorf("insert nav series: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
