package align

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"regime-rotation-lab/internal/domain"
)

// daily fabricates a usable series of consecutive January days.
func daily(startDay, n int, close float64) []*domain.PricePoint {
	points := make([]*domain.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, &domain.PricePoint{
			Date:  fmt.Sprintf("2024-01-%02d", startDay+i),
			Close: close,
		})
	}
	return points
}

func TestBuild_FeasibleStartIsLatestFirstDate(t *testing.T) {
	// A starts 2024-01-01, B starts 2024-01-10 → window may not begin before B
	series := map[string][]*domain.PricePoint{
		"A": daily(1, 20, 10),
		"B": daily(10, 11, 20),
	}

	a, err := Build(series, []string{"A", "B"}, "", "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	dates := a.Dates()
	if dates[0] != "2024-01-10" {
		t.Errorf("feasible start: got %s, want 2024-01-10", dates[0])
	}
	if dates[len(dates)-1] != "2024-01-20" {
		t.Errorf("window end: got %s, want 2024-01-20", dates[len(dates)-1])
	}
}

func TestBuild_RequestedBoundsClamped(t *testing.T) {
	series := map[string][]*domain.PricePoint{
		"A": daily(5, 15, 10),
	}

	// requested start before the history and end after it: both clamp
	a, err := Build(series, []string{"A"}, "2024-01-01", "2024-02-28")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	dates := a.Dates()
	if dates[0] != "2024-01-05" || dates[len(dates)-1] != "2024-01-19" {
		t.Errorf("window [%s, %s], want [2024-01-05, 2024-01-19]", dates[0], dates[len(dates)-1])
	}

	// requested window strictly inside
	a, err = Build(series, []string{"A"}, "2024-01-08", "2024-01-15")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	dates = a.Dates()
	if dates[0] != "2024-01-08" || dates[len(dates)-1] != "2024-01-15" {
		t.Errorf("window [%s, %s], want [2024-01-08, 2024-01-15]", dates[0], dates[len(dates)-1])
	}
}

func TestBuild_InsufficientRange(t *testing.T) {
	series := map[string][]*domain.PricePoint{
		"A": daily(1, 4, 10),
	}

	_, err := Build(series, []string{"A"}, "", "")
	if !errors.Is(err, ErrInsufficientRange) {
		t.Errorf("expected ErrInsufficientRange, got %v", err)
	}
}

func TestBuild_NoUsableData(t *testing.T) {
	series := map[string][]*domain.PricePoint{
		"A": daily(1, 10, 10),
		"B": {{Date: "2024-01-01", Close: 0}, {Date: "2024-01-02", Close: -1}},
	}

	_, err := Build(series, []string{"A", "B"}, "", "")
	if !errors.Is(err, ErrNoUsableData) {
		t.Errorf("expected ErrNoUsableData, got %v", err)
	}

	// absent ticker behaves the same as an all-unusable one
	_, err = Build(series, []string{"A", "C"}, "", "")
	if !errors.Is(err, ErrNoUsableData) {
		t.Errorf("expected ErrNoUsableData for missing ticker, got %v", err)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	series := map[string][]*domain.PricePoint{
		"A": daily(1, 20, 10),
		"B": daily(7, 14, 20),
	}

	first, err := Build(series, []string{"A", "B"}, "", "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(series, []string{"A", "B"}, "", "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !reflect.DeepEqual(first.Dates(), second.Dates()) {
		t.Errorf("alignment is not deterministic: %v vs %v", first.Dates(), second.Dates())
	}
}

func TestBuild_GapsStayInAxisFromOtherTickers(t *testing.T) {
	// B misses 2024-01-03; the date still exists on the axis because A has it,
	// and B simply has no point there.
	bSeries := daily(1, 10, 20)
	bSeries = append(bSeries[:2], bSeries[3:]...)

	series := map[string][]*domain.PricePoint{
		"A": daily(1, 10, 10),
		"B": bSeries,
	}

	a, err := Build(series, []string{"A", "B"}, "", "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, ok := a.PointAt("B", "2024-01-03"); ok {
		t.Error("B should have no point on 2024-01-03")
	}
	if _, ok := a.PointAt("A", "2024-01-03"); !ok {
		t.Error("A should have a point on 2024-01-03")
	}

	points := a.PointsAt("2024-01-03")
	if len(points) != 1 {
		t.Errorf("expected 1 point on gap date, got %d", len(points))
	}
}

func TestBuild_UnsortedInputIsSorted(t *testing.T) {
	series := map[string][]*domain.PricePoint{
		"A": {
			{Date: "2024-01-05", Close: 5},
			{Date: "2024-01-01", Close: 1},
			{Date: "2024-01-03", Close: 3},
			{Date: "2024-01-04", Close: 4},
			{Date: "2024-01-02", Close: 2},
		},
	}

	a, err := Build(series, []string{"A"}, "", "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	dates, closes := a.CloseHistory("A")
	for i := 1; i < len(dates); i++ {
		if dates[i-1] >= dates[i] {
			t.Fatalf("history not sorted: %v", dates)
		}
	}
	if closes[0] != 1 || closes[4] != 5 {
		t.Errorf("closes not reordered with dates: %v", closes)
	}
}
