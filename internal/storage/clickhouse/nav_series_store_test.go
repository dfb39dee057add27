package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

func TestNavSeriesStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNavSeriesStore(conn)
	ctx := context.Background()

	points := []*domain.NavPoint{
		{RunID: "ch-run-1", Date: "2024-01-03", NAV: 10100.5, BenchmarkNAV: 10050.25},
		{RunID: "ch-run-1", Date: "2024-01-02", NAV: 10000, BenchmarkNAV: 10000},
		{RunID: "ch-run-2", Date: "2024-01-02", NAV: 5000, BenchmarkNAV: 5000},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByRunID(ctx, "ch-run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-01-02", got[0].Date)
	assert.Equal(t, "2024-01-03", got[1].Date)
	assert.Equal(t, 10100.5, got[1].NAV)
	assert.Equal(t, 10050.25, got[1].BenchmarkNAV)
}

func TestNavSeriesStore_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNavSeriesStore(conn)

	err := store.InsertBulk(context.Background(), []*domain.NavPoint{
		{RunID: "ch-run-dup", Date: "2024-01-02", NAV: 10000},
		{RunID: "ch-run-dup", Date: "2024-01-02", NAV: 10001},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestNavSeriesStore_ExistingDuplicateFailsBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNavSeriesStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.NavPoint{
		{RunID: "ch-run-existing", Date: "2024-01-02", NAV: 10000},
	}))

	err := store.InsertBulk(ctx, []*domain.NavPoint{
		{RunID: "ch-run-existing", Date: "2024-01-03", NAV: 10100},
		{RunID: "ch-run-existing", Date: "2024-01-02", NAV: 10000},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// nothing from the failed batch may have landed
	got, err := store.GetByRunID(ctx, "ch-run-existing")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNavSeriesStore_EmptyRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNavSeriesStore(conn)

	got, err := store.GetByRunID(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}
