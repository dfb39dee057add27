package memory

import (
	"context"
	"sort"
	"sync"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

// NavSeriesStore is an in-memory implementation of storage.NavSeriesStore.
type NavSeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.NavPoint // keyed by run_id|date
}

// NewNavSeriesStore creates a new in-memory NAV series store.
func NewNavSeriesStore() *NavSeriesStore {
	return &NavSeriesStore{
		data: make(map[string]*domain.NavPoint),
	}
}

func navKey(runID, date string) string {
	return runID + "|" + date
}

// InsertBulk adds a run's NAV points. Fails entire batch on any duplicate.
func (s *NavSeriesStore) InsertBulk(_ context.Context, points []*domain.NavPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.RunID == "" || p.Date == "" {
			return storage.ErrInvalidInput
		}
		key := navKey(p.RunID, p.Date)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pCopy := *p
		s.data[navKey(p.RunID, p.Date)] = &pCopy
	}
	return nil
}

// GetByRunID retrieves all points for a run, ordered by date ASC.
func (s *NavSeriesStore) GetByRunID(_ context.Context, runID string) ([]*domain.NavPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.NavPoint
	for _, p := range s.data {
		if p.RunID == runID {
			pCopy := *p
			out = append(out, &pCopy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

var _ storage.NavSeriesStore = (*NavSeriesStore)(nil)
