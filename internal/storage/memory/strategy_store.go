package memory

import (
	"context"
	"sort"
	"sync"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyConfig
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{
		data: make(map[string]*domain.StrategyConfig),
	}
}

// Save stores or replaces a strategy config.
func (s *StrategyStore) Save(_ context.Context, cfg *domain.StrategyConfig) error {
	if cfg == nil || cfg.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfgCopy := *cfg
	s.data[cfg.ID] = &cfgCopy
	return nil
}

// Get retrieves a config by ID.
func (s *StrategyStore) Get(_ context.Context, id string) (*domain.StrategyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cfgCopy := *cfg
	return &cfgCopy, nil
}

// Delete removes a config by ID.
func (s *StrategyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// List retrieves all stored configs, ordered by ID ASC.
func (s *StrategyStore) List(_ context.Context) ([]*domain.StrategyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.StrategyConfig, 0, len(s.data))
	for _, cfg := range s.data {
		cfgCopy := *cfg
		out = append(out, &cfgCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ storage.StrategyStore = (*StrategyStore)(nil)
