package memory

import (
	"context"
	"sort"
	"sync"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

// MarketDataStore is an in-memory implementation of storage.MarketDataStore.
type MarketDataStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PricePoint
}

// NewMarketDataStore creates a new in-memory market data store.
func NewMarketDataStore() *MarketDataStore {
	return &MarketDataStore{
		data: make(map[string][]*domain.PricePoint),
	}
}

// GetMarketData retrieves the full series for a ticker, ordered by date ASC.
func (s *MarketDataStore) GetMarketData(_ context.Context, ticker string) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}

	out := make([]*domain.PricePoint, len(points))
	for i, p := range points {
		pCopy := *p
		out[i] = &pCopy
	}
	return out, nil
}

// SaveMarketData stores (or replaces) a ticker's series.
func (s *MarketDataStore) SaveMarketData(_ context.Context, ticker string, points []*domain.PricePoint) error {
	if ticker == "" {
		return storage.ErrInvalidInput
	}

	copied := make([]*domain.PricePoint, len(points))
	for i, p := range points {
		pCopy := *p
		copied[i] = &pCopy
	}
	sort.Slice(copied, func(i, j int) bool { return copied[i].Date < copied[j].Date })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ticker] = copied
	return nil
}

// DeleteMarketData removes a ticker's series.
func (s *MarketDataStore) DeleteMarketData(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ticker]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, ticker)
	return nil
}

var _ storage.MarketDataStore = (*MarketDataStore)(nil)
