package sanitize

import (
	"sort"

	"github.com/rustyeddy/backtester/market"
)

// dropNaN removes candles with any missing numeric field.
func dropNaN(candles []market.Candle) ([]market.Candle, int) {
	out := make([]market.Candle, 0, len(candles))
	for _, c := range candles {
		if c.HasNaN() {
			continue
		}
		out = append(out, c)
	}
	return out, len(candles) - len(out)
}

// dedupSort keeps the first-encountered candle for each key, then orders the
// result by timestamp. Equal timestamps keep their relative order.
func dedupSort(candles []market.Candle) ([]market.Candle, int) {
	seen := make(map[market.Key]struct{}, len(candles))
	out := make([]market.Candle, 0, len(candles))
	for _, c := range candles {
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	sortByTime(out)
	return out, len(candles) - len(out)
}

func sortByTime(candles []market.Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})
}
