package library

const (
	smaShortWindow = 20
	smaLongWindow  = 50
	smaPriceWindow = 50
)

// SMACrossover returns 1 where the short moving average sits above the long
// one.
func SMACrossover(prices []float64) ([]int, error) {
	short := backfill(rollingMean(prices, smaShortWindow), 0)
	long := backfill(rollingMean(prices, smaLongWindow), 0)

	regime := make([]int, len(prices))
	for i := range prices {
		if short[i] > long[i] {
			regime[i] = 1
		}
	}
	return regime, nil
}

// PriceAboveSMA returns 1 where the price sits above its moving average.
func PriceAboveSMA(prices []float64) ([]int, error) {
	sma := backfill(rollingMean(prices, smaPriceWindow), 0)

	regime := make([]int, len(prices))
	for i, p := range prices {
		if p > sma[i] {
			regime[i] = 1
		}
	}
	return regime, nil
}
