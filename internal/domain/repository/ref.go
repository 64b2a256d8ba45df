package repository

import "strings"

// ParseRef splits a series reference of the form "SYMBOL:tf" into its symbol
// and timeframe. A missing or unknown timeframe suffix falls back to the
// default so that bare symbols like "BTC" stay valid references.
func ParseRef(ref string) (symbol string, tf Timeframe) {
	idx := strings.LastIndex(ref, ":")
	if idx < 0 {
		return ref, DefaultTimeframe()
	}
	return ref[:idx], NormalizeTimeframe(ref[idx+1:])
}
