package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// InsertBulk adds a run's trades atomically. Fails entire batch on any
// duplicate (run_id, seq).
func (s *TradeRecordStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trade_records (
			run_id, seq, trade_date, ticker, side, notional, shares, price
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	for _, t := range trades {
		_, err := tx.Exec(ctx, query,
			t.RunID, t.Seq, t.Date, t.Ticker, string(t.Side),
			t.Notional, t.Shares, t.Price,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all trades for a run, ordered by seq ASC.
func (s *TradeRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT run_id, seq, trade_date, ticker, side, notional, shares, price
		FROM trade_records
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by run id: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		var t domain.TradeRecord
		var side string

		err := rows.Scan(
			&t.RunID, &t.Seq, &t.Date, &t.Ticker, &side,
			&t.Notional, &t.Shares, &t.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}

		t.Side = domain.TradeSide(side)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}
