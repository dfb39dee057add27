package memory

import (
	"context"
	"errors"
	"testing"

	"regime-rotation-lab/internal/domain"
	"regime-rotation-lab/internal/storage"
)

func TestNavSeriesStore_InsertBulkAndGet(t *testing.T) {
	store := NewNavSeriesStore()
	ctx := context.Background()

	points := []*domain.NavPoint{
		{RunID: "run1", Date: "2024-01-03", NAV: 10100, BenchmarkNAV: 10050},
		{RunID: "run1", Date: "2024-01-02", NAV: 10000, BenchmarkNAV: 10000},
		{RunID: "run2", Date: "2024-01-02", NAV: 5000, BenchmarkNAV: 5000},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if got[0].Date != "2024-01-02" || got[1].Date != "2024-01-03" {
		t.Errorf("points not ordered by date: %s, %s", got[0].Date, got[1].Date)
	}
}

func TestNavSeriesStore_DuplicateFailsBatch(t *testing.T) {
	store := NewNavSeriesStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.NavPoint{{RunID: "run1", Date: "2024-01-02"}})

	err := store.InsertBulk(ctx, []*domain.NavPoint{
		{RunID: "run1", Date: "2024-01-03"},
		{RunID: "run1", Date: "2024-01-02"},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByRunID(ctx, "run1")
	if len(got) != 1 {
		t.Errorf("batch partially applied: %d points", len(got))
	}
}

func TestNavSeriesStore_UnknownRunEmpty(t *testing.T) {
	store := NewNavSeriesStore()

	got, err := store.GetByRunID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty series, got %d points", len(got))
	}
}
