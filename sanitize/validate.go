package sanitize

import "github.com/rustyeddy/backtester/market"

// Valid reports whether c satisfies the OHLCV invariants:
// low <= open <= high, low <= close <= high, volume >= 0, no missing fields.
func Valid(c market.Candle) bool {
	if c.HasNaN() {
		return false
	}
	switch {
	case c.High < c.Low:
		return false
	case c.Open < c.Low, c.Open > c.High:
		return false
	case c.Close < c.Low, c.Close > c.High:
		return false
	case c.Volume < 0:
		return false
	}
	return true
}

// splitValid partitions candles, preserving input order in both halves.
func splitValid(candles []market.Candle) (valid, invalid []market.Candle) {
	valid = make([]market.Candle, 0, len(candles))
	for _, c := range candles {
		if Valid(c) {
			valid = append(valid, c)
			continue
		}
		invalid = append(invalid, c)
	}
	return valid, invalid
}
