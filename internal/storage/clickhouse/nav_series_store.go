package clickhouse

import (
	"context"
	"fmt"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

// NavSeriesStore implements storage.NavSeriesStore using ClickHouse.
// MergeTree does not enforce uniqueness at insert time, so duplicates are
// checked explicitly before the batch is sent.
type NavSeriesStore struct {
	conn *Conn
}

// NewNavSeriesStore creates a new NavSeriesStore.
func NewNavSeriesStore(conn *Conn) *NavSeriesStore {
	return &NavSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.NavSeriesStore = (*NavSeriesStore)(nil)

// InsertBulk adds a run's NAV points. Fails entire batch on duplicate
// (run_id, date).
func (s *NavSeriesStore) InsertBulk(ctx context.Context, points []*domain.NavPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID string
		date  string
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		k := key{p.RunID, p.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows. One query per run_id in
	// the batch; a batch normally carries exactly one run.
	runs := make(map[string]struct{})
	for _, p := range points {
		runs[p.RunID] = struct{}{}
	}
	for runID := range runs {
		existing, err := s.dates(ctx, runID)
		if err != nil {
			return fmt.Errorf("check existing dates: %w", err)
		}
		for _, p := range points {
			if p.RunID != runID {
				continue
			}
			if _, exists := existing[p.Date]; exists {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO nav_series (run_id, date, nav, benchmark_nav)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.RunID, p.Date, p.NAV, p.BenchmarkNAV); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all points for a run, ordered by date ASC.
func (s *NavSeriesStore) GetByRunID(ctx context.Context, runID string) ([]*domain.NavPoint, error) {
	query := `
		SELECT run_id, date, nav, benchmark_nav
		FROM nav_series
		WHERE run_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	var points []*domain.NavPoint
	for rows.Next() {
		var p domain.NavPoint
		if err := rows.Scan(&p.RunID, &p.Date, &p.NAV, &p.BenchmarkNAV); err != nil {
			return nil, fmt.Errorf("scan nav series row: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nav series rows: %w", err)
	}

	return points, nil
}

// dates returns the set of dates already stored for a run.
func (s *NavSeriesStore) dates(ctx context.Context, runID string) (map[string]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT date FROM nav_series WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		out[date] = struct{}{}
	}
	return out, rows.Err()
}
