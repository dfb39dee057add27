package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
// The full config is stored as JSONB next to its ID so the schema never lags
// behind config fields.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Save stores or replaces a strategy config.
func (s *StrategyStore) Save(ctx context.Context, cfg *domain.StrategyConfig) error {
	if cfg == nil || cfg.ID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal strategy config: %w", err)
	}

	query := `
		INSERT INTO strategies (strategy_id, config)
		VALUES ($1, $2)
		ON CONFLICT (strategy_id) DO UPDATE SET config = EXCLUDED.config
	`

	if _, err := s.pool.Exec(ctx, query, cfg.ID, payload); err != nil {
		return fmt.Errorf("save strategy: %w", err)
	}
	return nil
}

// Get retrieves a config by ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) Get(ctx context.Context, id string) (*domain.StrategyConfig, error) {
	query := `SELECT config FROM strategies WHERE strategy_id = $1`

	var payload []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy: %w", err)
	}

	var cfg domain.StrategyConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal strategy config: %w", err)
	}
	return &cfg, nil
}

// Delete removes a config by ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM strategies WHERE strategy_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all stored configs, ordered by ID ASC.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.StrategyConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT config FROM strategies ORDER BY strategy_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var configs []*domain.StrategyConfig
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		var cfg domain.StrategyConfig
		if err := json.Unmarshal(payload, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal strategy config: %w", err)
		}
		configs = append(configs, &cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rows: %w", err)
	}

	return configs, nil
}
