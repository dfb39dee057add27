package storage

import (
	"context"

	"regime-rotation-lab/internal/domain"
)

// MarketDataStore provides pre-cleaned daily OHLC history by ticker.
// The simulation engine only reads; save/delete exist for the loaders that
// feed it. Series are returned ordered by date ASC.
type MarketDataStore interface {
	// GetMarketData retrieves the full series for a ticker.
	// Returns ErrNotFound when the ticker has no stored history at all.
	GetMarketData(ctx context.Context, ticker string) ([]*domain.PricePoint, error)

	// SaveMarketData stores (or replaces) a ticker's series.
	SaveMarketData(ctx context.Context, ticker string, points []*domain.PricePoint) error

	// DeleteMarketData removes a ticker's series. Returns ErrNotFound if absent.
	DeleteMarketData(ctx context.Context, ticker string) error
}

// StrategyStore persists strategy configurations, keyed by strategy ID.
type StrategyStore interface {
	// Save stores or replaces a strategy config.
	Save(ctx context.Context, cfg *domain.StrategyConfig) error

	// Get retrieves a config by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.StrategyConfig, error)

	// Delete removes a config by ID. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// List retrieves all stored configs, ordered by ID ASC.
	List(ctx context.Context) ([]*domain.StrategyConfig, error)
}

// TradeRecordStore persists the append-only trade ledger of finished runs.
type TradeRecordStore interface {
	// InsertBulk adds a run's trades atomically.
	// Fails the entire batch on any duplicate (run_id, seq).
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByRunID retrieves all trades for a run, ordered by seq ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.TradeRecord, error)
}

// NavSeriesStore persists the daily NAV path of finished runs.
type NavSeriesStore interface {
	// InsertBulk adds a run's NAV points. Fails entire batch on duplicate
	// (run_id, date).
	InsertBulk(ctx context.Context, points []*domain.NavPoint) error

	// GetByRunID retrieves all points for a run, ordered by date ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.NavPoint, error)
}
