// Package library is the frozen collaborator: a fixed set of pure,
// parameter-less signal functions from a real-valued close series to a
// same-length binary regime vector. Windows and thresholds are baked in; the
// engine never tunes them. The version token below is what gets pinned into
// every provenance receipt.
package library

import (
	"math"

	"RegimeCast/internal/engine"
)

// Version is the declared version token of this frozen library build.
const Version = "frozen-lib/v1.0.0"

// Functions returns the full identifier-to-function surface of the library.
func Functions() map[string]engine.SignalFunc {
	return map[string]engine.SignalFunc{
		"sma_crossover":     SMACrossover,
		"price_above_sma":   PriceAboveSMA,
		"rsi_overbought":    RSIOverbought,
		"rsi_oversold":      RSIOversold,
		"bollinger_squeeze": BollingerSqueeze,
		"atr_expansion":     ATRExpansion,
		"majority_smooth":   MajoritySmooth,
	}
}

// --- shared rolling-window helpers ---

// rollingMean returns the trailing w-mean with NaN for the warmup prefix.
func rollingMean(xs []float64, w int) []float64 {
	out := make([]float64, len(xs))
	sum := 0.0
	nan := 0
	for i, v := range xs {
		if math.IsNaN(v) {
			nan++
		} else {
			sum += v
		}
		if i >= w {
			old := xs[i-w]
			if math.IsNaN(old) {
				nan--
			} else {
				sum -= old
			}
		}
		if i < w-1 || nan > 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// rollingStd returns the trailing w sample standard deviation (ddof=1) with
// NaN for the warmup prefix.
func rollingStd(xs []float64, w int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		window := xs[i-w+1 : i+1]
		mean := 0.0
		valid := true
		for _, v := range window {
			if math.IsNaN(v) {
				valid = false
				break
			}
			mean += v
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		mean /= float64(w)
		ss := 0.0
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// backfill replaces the leading NaN run with the first valid value, then any
// remaining NaN with fallback.
func backfill(xs []float64, fallback float64) []float64 {
	out := make([]float64, len(xs))
	first := math.NaN()
	for _, v := range xs {
		if !math.IsNaN(v) {
			first = v
			break
		}
	}
	if math.IsNaN(first) {
		first = fallback
	}
	filled := false
	for i, v := range xs {
		switch {
		case !math.IsNaN(v):
			out[i] = v
			filled = true
		case !filled:
			out[i] = first
		default:
			out[i] = fallback
		}
	}
	return out
}

// fillNaN replaces every NaN with fallback.
func fillNaN(xs []float64, fallback float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		if math.IsNaN(v) {
			out[i] = fallback
		} else {
			out[i] = v
		}
	}
	return out
}

// pctChange returns the one-step fractional change with NaN at index 0.
func pctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) > 0 {
		out[0] = math.NaN()
	}
	for i := 1; i < len(xs); i++ {
		if xs[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}
