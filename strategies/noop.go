package strategies

import (
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

// Noop never trades.
type Noop struct{}

func (Noop) Name() string { return "noop" }
func (Noop) Reset()       {}
func (Noop) Warmup() int  { return 0 }

func (Noop) Update(market.Candle) backtest.Decision {
	return backtest.Decision{}
}
