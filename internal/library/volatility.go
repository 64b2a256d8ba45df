package library

import "math"

const (
	bollingerWindow   = 20
	bollingerNumStd   = 2.0
	squeezeThreshold  = 0.05
	atrWindow         = 14
	atrBaselineWindow = 28
	warmupBandwidth   = 1.0
)

// BollingerSqueeze returns 1 where band width relative to the mean drops
// below the squeeze threshold, indicating low-volatility consolidation.
func BollingerSqueeze(prices []float64) ([]int, error) {
	sma := rollingMean(prices, bollingerWindow)
	std := rollingStd(prices, bollingerWindow)

	regime := make([]int, len(prices))
	for i := range prices {
		// Warmup windows read as wide bands to avoid false positives.
		bandwidth := warmupBandwidth
		if !math.IsNaN(sma[i]) && !math.IsNaN(std[i]) && sma[i] != 0 {
			bandwidth = (2 * bollingerNumStd * std[i]) / sma[i]
		}
		if bandwidth < squeezeThreshold {
			regime[i] = 1
		}
	}
	return regime, nil
}

// ATRExpansion approximates true-range expansion from closes only: 1 where
// the rolling return volatility rises above its own longer-window mean.
func ATRExpansion(prices []float64) ([]int, error) {
	vol := fillNaN(rollingStd(pctChange(prices), atrWindow), 0)
	baseline := fillNaN(rollingMean(vol, atrBaselineWindow), 0)

	regime := make([]int, len(prices))
	for i := range prices {
		if vol[i] > baseline[i] {
			regime[i] = 1
		}
	}
	return regime, nil
}
