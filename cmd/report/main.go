package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/metrics"
	"regime-rotation-lab/internal/reporting"
	chstore "regime-rotation-lab/internal/storage/clickhouse"
	pgstore "regime-rotation-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	runID := flag.String("run-id", "", "Run to report on (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (trades, required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (NAV series, required)")
	strategyFile := flag.String("strategy", "", "Optional strategy config JSON to label the report")
	outputDir := flag.String("output-dir", "", "Write report files here instead of stdout")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *runID == "" {
		logger.Fatal("--run-id is required")
	}
	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required")
	}

	ctx := context.Background()

	// Load the persisted run
	result, err := loadRun(ctx, *runID, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("load run %s: %v", *runID, err)
	}
	if len(result.Series) == 0 {
		logger.Fatalf("run %s has no persisted NAV series", *runID)
	}

	cfg := &domain.StrategyConfig{ID: result.StrategyID, Name: result.StrategyID}
	if *strategyFile != "" {
		loaded, err := loadStrategy(*strategyFile)
		if err != nil {
			logger.Fatalf("load strategy: %v", err)
		}
		cfg = loaded
	}

	summary := metrics.Compute(result)
	report := reporting.Build(cfg, result, summary)

	if *outputDir == "" {
		fmt.Print(reporting.RenderMarkdown(report))
		return
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}

	files := map[string]string{
		"REPORT.md":  reporting.RenderMarkdown(report),
		"NAV.csv":    reporting.RenderNavCSV(result.Series),
		"TRADES.csv": reporting.RenderTradesCSV(result.Trades),
	}
	for name, content := range files {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			logger.Fatalf("write %s: %v", path, err)
		}
	}

	fmt.Println("Report generated:")
	for name := range files {
		fmt.Printf("  - %s\n", filepath.Join(*outputDir, name))
	}
}

// loadRun reassembles a run from its persisted trades and NAV series.
// Regime switches and the target weight path are not persisted, so the rebuilt
// result carries the NAV path, benchmark, and trades only.
func loadRun(ctx context.Context, runID, postgresDSN, clickhouseDSN string) (*domain.SimulationResult, error) {
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	trades, err := pgstore.NewTradeRecordStore(pool).GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	points, err := chstore.NewNavSeriesStore(conn).GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load nav series: %w", err)
	}

	result := &domain.SimulationResult{
		RunID:  runID,
		Trades: trades,
	}

	rebalanced := make(map[string]bool, len(trades))
	for _, t := range trades {
		rebalanced[t.Date] = true
	}
	for _, p := range points {
		result.Series = append(result.Series, domain.SimDayRecord{
			Date:         p.Date,
			NAV:          p.NAV,
			BenchmarkNAV: p.BenchmarkNAV,
			Rebalanced:   rebalanced[p.Date],
		})
	}

	return result, nil
}

// loadStrategy reads a single config, or the first of an array, from JSON.
func loadStrategy(path string) (*domain.StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var configs []*domain.StrategyConfig
	if err := json.Unmarshal(data, &configs); err == nil && len(configs) > 0 {
		return configs[0], nil
	}

	var single domain.StrategyConfig
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &single, nil
}
