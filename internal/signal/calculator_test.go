package signal

import (
	"fmt"
	"testing"

	"regime-rotation-lab/internal/align"
	"regime-rotation-lab/internal/domain"
)

func buildCalc(t *testing.T, points []*domain.PricePoint) *Calculator {
	t.Helper()
	a, err := align.Build(map[string][]*domain.PricePoint{"X": points}, []string{"X"}, "", "")
	if err != nil {
		t.Fatalf("align.Build failed: %v", err)
	}
	return NewCalculator(a)
}

func ramp(n int) []*domain.PricePoint {
	points := make([]*domain.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, &domain.PricePoint{
			Date:  fmt.Sprintf("2024-01-%02d", i+1),
			Close: float64(i + 1),
		})
	}
	return points
}

func TestMovingAverage_StrictlyBeforeAsOf(t *testing.T) {
	// closes 1..10 on Jan 1..10; MA(3) as of Jan 10 sees 7,8,9 only
	calc := buildCalc(t, ramp(10))

	ma, ok := calc.MovingAverage("X", 3, "2024-01-10")
	if !ok {
		t.Fatal("expected MA to be available")
	}
	if ma != 8 {
		t.Errorf("MA(3) as of Jan 10: got %f, want 8 (mean of 7,8,9)", ma)
	}
}

func TestMovingAverage_Warmup(t *testing.T) {
	calc := buildCalc(t, ramp(5))

	// as of Jan 3 only closes 1,2 are known; MA(3) must not be formed
	if _, ok := calc.MovingAverage("X", 3, "2024-01-03"); ok {
		t.Error("MA(3) should be unavailable with 2 known closes")
	}
	if _, ok := calc.MovingAverage("X", 3, "2024-01-04"); !ok {
		t.Error("MA(3) should be available with 3 known closes")
	}
}

func TestMovingAverage_NoLookahead(t *testing.T) {
	// modifying data strictly after the as-of date must not change the value
	base := ramp(10)
	calc := buildCalc(t, base)
	before, ok := calc.MovingAverage("X", 4, "2024-01-07")
	if !ok {
		t.Fatal("expected MA to be available")
	}

	mutated := ramp(10)
	for _, p := range mutated {
		if p.Date >= "2024-01-07" {
			p.Close = 9999
		}
	}
	calc = buildCalc(t, mutated)
	after, ok := calc.MovingAverage("X", 4, "2024-01-07")
	if !ok {
		t.Fatal("expected MA to be available")
	}

	if before != after {
		t.Errorf("future data leaked into MA: %f vs %f", before, after)
	}
}

func TestMovingAverage_SkipsUnusableCloses(t *testing.T) {
	points := ramp(8)
	points[4].Close = 0 // Jan 5 is a bad print, must be skipped not averaged

	calc := buildCalc(t, points)

	// as of Jan 8 valid closes are 1,2,3,4,6,7; MA(3) = mean(4,6,7)
	ma, ok := calc.MovingAverage("X", 3, "2024-01-08")
	if !ok {
		t.Fatal("expected MA to be available")
	}
	want := (4.0 + 6.0 + 7.0) / 3.0
	if ma != want {
		t.Errorf("MA over gap: got %f, want %f", ma, want)
	}
}

func TestMomentum(t *testing.T) {
	calc := buildCalc(t, ramp(10))

	// as of Jan 10: close[t-1]=9, close[t-1-4]=5
	mom, ok := calc.Momentum("X", 4, "2024-01-10")
	if !ok {
		t.Fatal("expected momentum to be available")
	}
	want := 9.0/5.0 - 1
	if mom != want {
		t.Errorf("momentum: got %f, want %f", mom, want)
	}
}

func TestMomentum_Warmup(t *testing.T) {
	calc := buildCalc(t, ramp(6))

	if _, ok := calc.Momentum("X", 5, "2024-01-06"); ok {
		t.Error("momentum should be unavailable without both endpoints")
	}
	if _, ok := calc.Momentum("X", 5, "2024-01-07"); !ok {
		t.Error("momentum should be available with 6 known closes")
	}
}

func TestLastClose(t *testing.T) {
	calc := buildCalc(t, ramp(5))

	if _, ok := calc.LastClose("X", "2024-01-01"); ok {
		t.Error("no close is known before the first bar")
	}

	v, ok := calc.LastClose("X", "2024-01-04")
	if !ok || v != 3 {
		t.Errorf("LastClose as of Jan 4: got %f ok=%v, want 3", v, ok)
	}
}
