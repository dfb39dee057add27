package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeRecord // keyed by run_id|seq
}

// NewTradeRecordStore creates a new in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

func tradeKey(runID string, seq int) string {
	return fmt.Sprintf("%s|%d", runID, seq)
}

// InsertBulk adds a run's trades atomically. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(_ context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := tradeKey(t.RunID, t.Seq)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range trades {
		tCopy := *t
		s.data[tradeKey(t.RunID, t.Seq)] = &tCopy
	}
	return nil
}

// GetByRunID retrieves all trades for a run, ordered by seq ASC.
func (s *TradeRecordStore) GetByRunID(_ context.Context, runID string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradeRecord
	for _, t := range s.data {
		if t.RunID == runID {
			tCopy := *t
			out = append(out, &tCopy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)
