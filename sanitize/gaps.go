package sanitize

import "github.com/rustyeddy/backtester/market"

// MaxGapFill is the largest number of missing slots a single gap may have
// and still be filled. Larger gaps usually come from a corrupt timestamp;
// they are reported with Unfilled set and left open.
const MaxGapFill = 100_000

// Gap is a run of missing candles in [Start, End), timestamps in ms.
type Gap struct {
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
	Missing  int   `json:"missing"`
	Unfilled bool  `json:"unfilled,omitempty"`
}

// FillGaps walks a sorted, deduplicated, validated series and synthesizes a
// flat candle for every missing slot. Each synthetic candle repeats the close
// of the last real candle before the gap with zero volume. The returned series
// is a new slice sorted by timestamp; the gaps are listed in time order.
// Gaps of more than MaxGapFill slots are listed but not filled.
func FillGaps(candles []market.Candle, step int64) ([]market.Candle, []Gap) {
	out := make([]market.Candle, len(candles), len(candles)+1)
	copy(out, candles)
	if step <= 0 || len(candles) < 2 {
		return out, nil
	}

	var (
		gaps   []Gap
		filled bool
	)
	for i := 1; i < len(candles); i++ {
		prev, curr := candles[i-1], candles[i]

		// unsigned difference cannot overflow for curr > prev
		diff := uint64(curr.Timestamp) - uint64(prev.Timestamp)
		if diff <= uint64(step) {
			continue
		}
		missing := (diff - 1) / uint64(step)

		g := Gap{Start: prev.Timestamp + step, End: curr.Timestamp}
		if missing > MaxGapFill {
			g.Missing = int(missing)
			g.Unfilled = true
			gaps = append(gaps, g)
			continue
		}

		series := prev.Series()
		g.Missing = int(missing)
		for k := int64(0); k < int64(missing); k++ {
			out = append(out, series.Flat(g.Start+k*step, prev.Close))
		}
		gaps = append(gaps, g)
		filled = true
	}

	if filled {
		sortByTime(out)
	}
	return out, gaps
}
