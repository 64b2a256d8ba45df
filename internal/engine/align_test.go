package engine

import (
	"testing"
	"time"

	"RegimeCast/internal/domain/models"
)

func mkSeries(ref string, start time.Time, step time.Duration, values []float64) models.TimeSeries {
	s := models.TimeSeries{Ref: ref}
	for i, v := range values {
		s.Points = append(s.Points, models.Point{TS: start.Add(time.Duration(i) * step), Value: v})
	}
	return s
}

func TestAlignBroadcastCoarseToFine(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	fine := mkSeries("fine", start, time.Hour, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	coarse := mkSeries("coarse", start, 5*time.Hour, []float64{100, 200})

	out, err := Align([]models.TimeSeries{fine, coarse})
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 series, got %d", len(out))
	}
	if out[0].Len() != 10 || out[1].Len() != 10 {
		t.Fatalf("expected both lengths 10, got %d and %d", out[0].Len(), out[1].Len())
	}

	// Each coarse value repeats across the fine timestamps within its period.
	want := []float64{100, 100, 100, 100, 100, 200, 200, 200, 200, 200}
	for i, v := range out[1].Values() {
		if v != want[i] {
			t.Fatalf("broadcast[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestAlignSameGranularityPassthrough(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	a := mkSeries("a", start, time.Hour, []float64{1, 2, 3})
	b := mkSeries("b", start, time.Hour, []float64{4, 5, 6})

	out, err := Align([]models.TimeSeries{a, b})
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if out[0].Len() != 3 || out[1].Len() != 3 {
		t.Fatalf("expected lengths 3, got %d and %d", out[0].Len(), out[1].Len())
	}
}

func TestAlignNoAnchor(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	fine := mkSeries("fine", start, time.Hour, []float64{1, 2, 3, 4, 5, 6})
	// Coarse series starts after the fine window begins: the first fine
	// timestamps have no coarse value to repeat.
	late := mkSeries("late", start.Add(3*time.Hour), 5*time.Hour, []float64{100, 200})

	_, err := Align([]models.TimeSeries{fine, late})
	if !IsCode(err, CodeNoAlignmentAnchor) {
		t.Fatalf("expected NoAlignmentAnchor, got %v", err)
	}
}

func TestAlignDisjointWindows(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	a := mkSeries("a", start, time.Hour, []float64{1, 2, 3})
	b := mkSeries("b", start.Add(100*time.Hour), time.Hour, []float64{4, 5, 6})

	_, err := Align([]models.TimeSeries{a, b})
	if !IsCode(err, CodeConvergedIndexEmpty) {
		t.Fatalf("expected ConvergedIndexEmpty, got %v", err)
	}
}

func TestAlignEmptySeries(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	a := mkSeries("a", start, time.Hour, []float64{1, 2, 3})
	empty := models.TimeSeries{Ref: "empty"}

	_, err := Align([]models.TimeSeries{a, empty})
	if !IsCode(err, CodeConvergedIndexEmpty) {
		t.Fatalf("expected ConvergedIndexEmpty, got %v", err)
	}
}

func TestAlignSingleSeriesUntouched(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	a := mkSeries("a", start, time.Hour, []float64{1, 2, 3})

	out, err := Align([]models.TimeSeries{a})
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if out[0].Len() != 3 {
		t.Fatalf("expected length 3, got %d", out[0].Len())
	}
}
