package library

import "math"

const (
	rsiPeriod              = 14
	rsiOverboughtThreshold = 70
	rsiOversoldThreshold   = 30
	rsiNeutral             = 50
)

// relativeStrength computes RSI over the fixed period, with the warmup prefix
// held at the neutral value.
func relativeStrength(prices []float64) []float64 {
	n := len(prices)
	gains := make([]float64, n)
	losses := make([]float64, n)
	if n > 0 {
		gains[0] = math.NaN()
		losses[0] = math.NaN()
	}
	for i := 1; i < n; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	gain := rollingMean(gains, rsiPeriod)
	loss := rollingMean(losses, rsiPeriod)

	rsi := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(gain[i]) || math.IsNaN(loss[i]):
			rsi[i] = rsiNeutral
		case loss[i] == 0 && gain[i] == 0:
			rsi[i] = rsiNeutral
		case loss[i] == 0:
			rsi[i] = 100
		default:
			rs := gain[i] / loss[i]
			rsi[i] = 100 - 100/(1+rs)
		}
	}
	return rsi
}

// RSIOverbought returns 1 where RSI exceeds the overbought threshold.
func RSIOverbought(prices []float64) ([]int, error) {
	rsi := relativeStrength(prices)
	regime := make([]int, len(prices))
	for i, v := range rsi {
		if v > rsiOverboughtThreshold {
			regime[i] = 1
		}
	}
	return regime, nil
}

// RSIOversold returns 1 where RSI drops below the oversold threshold.
func RSIOversold(prices []float64) ([]int, error) {
	rsi := relativeStrength(prices)
	regime := make([]int, len(prices))
	for i, v := range rsi {
		if v < rsiOversoldThreshold {
			regime[i] = 1
		}
	}
	return regime, nil
}
