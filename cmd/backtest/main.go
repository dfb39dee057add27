package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/metrics"
	"regime-rotation-lab/internal/orchestrator"
	"regime-rotation-lab/internal/reporting"
	"regime-rotation-lab/internal/simulation"
	"regime-rotation-lab/internal/storage"
	chstore "regime-rotation-lab/internal/storage/clickhouse"
	"regime-rotation-lab/internal/storage/memory"
	"regime-rotation-lab/internal/storage/migrations"
	pgstore "regime-rotation-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	strategyFile := flag.String("strategy", "", "Path to strategy config JSON (object or array, required)")
	strategyID := flag.String("strategy-id", "", "Strategy to run (defaults to the first in the file)")
	runAll := flag.Bool("all", false, "Run every strategy in the file instead of a single one")
	dataDir := flag.String("data-dir", "", "Directory of <TICKER>.json daily OHLC files (required)")

	// Window overrides
	startDate := flag.String("start", "", "Override analysis window start (YYYY-MM-DD)")
	endDate := flag.String("end", "", "Override analysis window end (YYYY-MM-DD)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (trade persistence)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (NAV series persistence)")
	persistResult := flag.Bool("persist", false, "Persist trades and NAV series to storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output result as JSON instead of Markdown")
	navCSV := flag.String("nav-csv", "", "Write the daily NAV series as CSV to this path")
	tradesCSV := flag.String("trades-csv", "", "Write the trade ledger as CSV to this path")
	verbose := flag.Bool("verbose", false, "Verbose logging")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *strategyFile == "" {
		logger.Fatal("--strategy is required")
	}
	if *dataDir == "" {
		logger.Fatal("--data-dir is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Load strategies into the in-memory store
	strategyStore := memory.NewStrategyStore()
	configs, err := loadStrategies(*strategyFile)
	if err != nil {
		logger.Fatalf("load strategies: %v", err)
	}
	for _, cfg := range configs {
		if err := strategyStore.Save(ctx, cfg); err != nil {
			logger.Fatalf("store strategy %s: %v", cfg.ID, err)
		}
	}

	target := *strategyID
	if target == "" {
		target = configs[0].ID
	}

	// Apply window overrides to the target strategy
	if *startDate != "" || *endDate != "" {
		cfg, err := strategyStore.Get(ctx, target)
		if err != nil {
			logger.Fatalf("strategy %s not in %s", target, *strategyFile)
		}
		if *startDate != "" {
			cfg.StartDate = *startDate
		}
		if *endDate != "" {
			cfg.EndDate = *endDate
		}
		if err := strategyStore.Save(ctx, cfg); err != nil {
			logger.Fatalf("store strategy %s: %v", cfg.ID, err)
		}
	}

	// Load market data files
	marketData := memory.NewMarketDataStore()
	loaded, err := loadMarketData(ctx, *dataDir, marketData)
	if err != nil {
		logger.Fatalf("load market data: %v", err)
	}
	logger.Printf("Loaded %d tickers from %s", loaded, *dataDir)

	// Batch mode hands the whole store to the orchestrator
	if *runAll {
		if err := runBatch(ctx, logger, strategyStore, marketData, *postgresDSN, *clickhouseDSN, *persistResult, *outputJSON, *verbose); err != nil {
			logger.Fatalf("batch run failed: %v", err)
		}
		return
	}

	// Run the simulation
	runner := simulation.NewRunner(simulation.RunnerOptions{
		StrategyStore: strategyStore,
		MarketData:    marketData,
		Verbose:       *verbose,
	})

	logger.Printf("Running backtest: strategy=%s", target)
	result, err := runner.Run(ctx, target)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	cfg, err := strategyStore.Get(ctx, target)
	if err != nil {
		logger.Fatalf("reload strategy %s: %v", target, err)
	}
	summary := metrics.Compute(result)

	// Persist results
	if *persistResult {
		if err := persist(ctx, *postgresDSN, *clickhouseDSN, result); err != nil {
			logger.Fatalf("persist results: %v", err)
		}
		logger.Printf("Persisted run %s", result.RunID)
	}

	// CSV exports
	if *navCSV != "" {
		if err := os.WriteFile(*navCSV, []byte(reporting.RenderNavCSV(result.Series)), 0o644); err != nil {
			logger.Fatalf("write nav csv: %v", err)
		}
	}
	if *tradesCSV != "" {
		if err := os.WriteFile(*tradesCSV, []byte(reporting.RenderTradesCSV(result.Trades)), 0o644); err != nil {
			logger.Fatalf("write trades csv: %v", err)
		}
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(struct {
			RunID      string           `json:"run_id"`
			StrategyID string           `json:"strategy_id"`
			Summary    *metrics.Summary `json:"summary"`
		}{result.RunID, result.StrategyID, summary}, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Print(reporting.RenderMarkdown(reporting.Build(cfg, result, summary)))
	}
}

// loadStrategies reads one config or an array of configs from a JSON file.
func loadStrategies(path string) ([]*domain.StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var configs []*domain.StrategyConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		var single domain.StrategyConfig
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		configs = []*domain.StrategyConfig{&single}
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("%s contains no strategies", path)
	}
	return configs, nil
}

// loadMarketData loads every <TICKER>.json file in dir into the store.
// Files load concurrently; each is an independent read of one series.
func loadMarketData(ctx context.Context, dir string, store storage.MarketDataStore) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no .json files in %s", dir)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(files))
	series := make([][]*domain.PricePoint, len(files))

	for i, name := range files {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", name, err)
				return
			}
			var points []*domain.PricePoint
			if err := json.Unmarshal(data, &points); err != nil {
				errs[i] = fmt.Errorf("parse %s: %w", name, err)
				return
			}
			series[i] = points
		}(i, name)
	}
	wg.Wait()

	for i, name := range files {
		if errs[i] != nil {
			return 0, errs[i]
		}
		ticker := strings.TrimSuffix(name, ".json")
		if err := store.SaveMarketData(ctx, ticker, series[i]); err != nil {
			return 0, fmt.Errorf("store %s: %w", ticker, err)
		}
	}

	return len(files), nil
}

// runBatch simulates every loaded strategy via the orchestrator and prints a
// per-strategy summary. Persistence backends attach only when -persist is set.
func runBatch(ctx context.Context, logger *log.Logger, strategyStore storage.StrategyStore, marketData storage.MarketDataStore, postgresDSN, clickhouseDSN string, persistResult, outputJSON, verbose bool) error {
	opts := orchestrator.Options{
		StrategyStore: strategyStore,
		MarketData:    marketData,
		Verbose:       verbose,
	}

	if persistResult {
		if postgresDSN == "" && clickhouseDSN == "" {
			return fmt.Errorf("--persist requires --postgres-dsn and/or --clickhouse-dsn")
		}
		if postgresDSN != "" {
			pool, err := pgstore.NewPool(ctx, postgresDSN)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return err
			}
			opts.TradeStore = pgstore.NewTradeRecordStore(pool)
		}
		if clickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
			if err != nil {
				return err
			}
			defer conn.Close()
			opts.NavStore = chstore.NewNavSeriesStore(conn)
		}
	}

	result, err := orchestrator.New(opts).Run(ctx)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		logger.Printf("WARNING: %s", msg)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result.Runs, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, run := range result.Runs {
		fmt.Printf("%s  run=%s  return=%.2f%%  cagr=%.2f%%  maxdd=%.2f%%  sharpe=%.2f\n",
			run.StrategyID, run.RunID,
			run.Summary.TotalReturn*100, run.Summary.CAGR*100,
			run.Summary.MaxDrawdown*100, run.Summary.Sharpe)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d strategies failed", len(result.Errors), result.StrategiesProcessed)
	}
	return nil
}

// persist writes a finished run to whichever backends are configured.
func persist(ctx context.Context, postgresDSN, clickhouseDSN string, result *domain.SimulationResult) error {
	if postgresDSN == "" && clickhouseDSN == "" {
		return fmt.Errorf("--persist requires --postgres-dsn and/or --clickhouse-dsn")
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return err
		}
		if err := pgstore.NewTradeRecordStore(pool).InsertBulk(ctx, result.Trades); err != nil {
			return fmt.Errorf("persist trades: %w", err)
		}
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return err
		}
		defer conn.Close()

		navStore := chstore.NewNavSeriesStore(conn)
		if err := navStore.InsertBulk(ctx, result.NavSeries()); err != nil {
			return fmt.Errorf("persist nav series: %w", err)
		}
	}

	return nil
}
