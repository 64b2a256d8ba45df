package engine

import (
	"sort"
	"time"

	"RegimeCast/internal/domain/models"
)

// Align reconciles two or more series of possibly different granularity onto a
// common, equal-length index before dispatch or composition.
//
// Lower-frequency series are broadcast by forward-repetition: each coarse
// value is repeated across every fine timestamp within its period, using the
// coarse value whose timestamp is the most recent one at or before the fine
// timestamp. No interpolation, no smoothing, no gap-filling beyond this single
// rule.
func Align(series []models.TimeSeries) ([]models.TimeSeries, error) {
	if len(series) <= 1 {
		return series, nil
	}

	for _, s := range series {
		if s.Len() == 0 {
			return nil, Errf(CodeConvergedIndexEmpty, "series %q is empty", s.Ref)
		}
		if err := s.Validate(); err != nil {
			return nil, Wrap(CodeInvalidPlanSchema, err, "series index invalid")
		}
	}

	fine := finestSeries(series)
	index := unionIndex(fine)

	// The common window is bounded by the latest start and earliest end of
	// the fine series; the union outside it has no counterpart in every
	// operand.
	index = trimToCommonWindow(index, fine)
	if len(index) == 0 {
		return nil, Errf(CodeConvergedIndexEmpty, "no common index across %d series", len(series))
	}

	out := make([]models.TimeSeries, 0, len(series))
	for _, s := range series {
		aligned, err := broadcast(s, index)
		if err != nil {
			return nil, err
		}
		out = append(out, aligned)
	}
	return out, nil
}

// finestSeries returns the series whose granularity matches the finest one.
// Granularities within a factor of two of the finest count as the same
// frequency tier, so slightly irregular intraday series are not mistaken for
// coarse ones.
func finestSeries(series []models.TimeSeries) []models.TimeSeries {
	finest := time.Duration(0)
	for _, s := range series {
		g := s.Granularity()
		if g > 0 && (finest == 0 || g < finest) {
			finest = g
		}
	}
	if finest == 0 {
		// All single-point or degenerate; everything is one tier.
		return series
	}

	out := make([]models.TimeSeries, 0, len(series))
	for _, s := range series {
		g := s.Granularity()
		if g == 0 || g < 2*finest {
			out = append(out, s)
		}
	}
	return out
}

func unionIndex(series []models.TimeSeries) []time.Time {
	seen := make(map[int64]time.Time)
	for _, s := range series {
		for _, p := range s.Points {
			seen[p.TS.UnixNano()] = p.TS
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func trimToCommonWindow(index []time.Time, series []models.TimeSeries) []time.Time {
	if len(series) == 0 || len(index) == 0 {
		return index
	}
	start := series[0].Points[0].TS
	end := series[0].Points[series[0].Len()-1].TS
	for _, s := range series[1:] {
		if first := s.Points[0].TS; first.After(start) {
			start = first
		}
		if last := s.Points[s.Len()-1].TS; last.Before(end) {
			end = last
		}
	}

	out := index[:0:0]
	for _, ts := range index {
		if !ts.Before(start) && !ts.After(end) {
			out = append(out, ts)
		}
	}
	return out
}

// broadcast projects s onto index by forward-repetition. Fails with
// NoAlignmentAnchor if an index timestamp precedes the first point of s
// (there is no value to repeat).
func broadcast(s models.TimeSeries, index []time.Time) (models.TimeSeries, error) {
	out := models.TimeSeries{Ref: s.Ref, Points: make([]models.Point, 0, len(index))}

	j := 0
	for _, ts := range index {
		if ts.Before(s.Points[0].TS) {
			return models.TimeSeries{}, Errf(CodeNoAlignmentAnchor,
				"series %q starts at %s, after index point %s", s.Ref,
				s.Points[0].TS.Format(time.RFC3339), ts.Format(time.RFC3339))
		}
		for j+1 < s.Len() && !s.Points[j+1].TS.After(ts) {
			j++
		}
		out.Points = append(out.Points, models.Point{TS: ts, Value: s.Points[j].Value})
	}
	return out, nil
}
