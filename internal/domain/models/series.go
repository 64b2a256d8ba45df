package models

import (
	"fmt"
	"sort"
	"time"
)

// Point is a single observation in a time series.
type Point struct {
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// TimeSeries is an ordered sequence of (timestamp, value) pairs with strictly
// increasing timestamps. Frequency is implicit from spacing; a series may be
// irregular.
type TimeSeries struct {
	Ref    string  `json:"ref"`
	Points []Point `json:"points"`
}

func (s TimeSeries) Len() int { return len(s.Points) }

// Values returns the value column.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Timestamps returns the index column.
func (s TimeSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.TS
	}
	return out
}

// Validate checks ordering invariants: strictly increasing timestamps, no
// duplicates.
func (s TimeSeries) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].TS.After(s.Points[i-1].TS) {
			return fmt.Errorf("series %q: timestamps not strictly increasing at index %d", s.Ref, i)
		}
	}
	return nil
}

// Granularity estimates the typical spacing between points as the median of
// successive timestamp differences. Zero for series shorter than 2 points.
func (s TimeSeries) Granularity() time.Duration {
	if len(s.Points) < 2 {
		return 0
	}
	diffs := make([]time.Duration, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		diffs = append(diffs, s.Points[i].TS.Sub(s.Points[i-1].TS))
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })
	return diffs[len(diffs)/2]
}
