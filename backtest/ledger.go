package backtest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome classifies a closed trade.
type Outcome string

const (
	Win  Outcome = "WIN"
	Loss Outcome = "LOSS"
)

// Trade is one closed round trip. Immutable once appended to a ledger.
type Trade struct {
	EntryTime    time.Time `json:"entry_time"`
	ExitTime     time.Time `json:"exit_time"`
	Side         Side      `json:"side"`
	EntryPrice   float64   `json:"entry_price"`
	ExitPrice    float64   `json:"exit_price"`
	NetPnL       float64   `json:"net_pnl"`
	PnLPct       float64   `json:"pnl_pct"`
	Result       Outcome   `json:"result"`
	EntryTrigger string    `json:"entry_trigger"`
	ExitTrigger  string    `json:"exit_trigger"`
	BarsInTrade  int       `json:"bars_in_trade"`
}

// Ledger is the append-only list of closed trades and the equity curve.
// len(equity) == len(trades)+1 always holds.
type Ledger struct {
	trades []Trade
	equity []float64
}

func newLedger(initial float64) Ledger {
	return Ledger{equity: []float64{initial}}
}

func (l *Ledger) append(t Trade) {
	prev := l.Capital()
	next := decimal.NewFromFloat(prev).Add(decimal.NewFromFloat(t.NetPnL))
	l.trades = append(l.trades, t)
	l.equity = append(l.equity, next.InexactFloat64())
}

// Capital is the current equity.
func (l *Ledger) Capital() float64 {
	if len(l.equity) == 0 {
		return 0
	}
	return l.equity[len(l.equity)-1]
}

func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *Ledger) Equity() []float64 {
	out := make([]float64, len(l.equity))
	copy(out, l.equity)
	return out
}

// netPnL is exit - entry - (commission + slippage) for one unit, computed in
// decimal so round prices produce round results.
func netPnL(entry, exit, commission, slippage float64) float64 {
	costs := decimal.NewFromFloat(commission).Add(decimal.NewFromFloat(slippage))
	net := decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(entry)).
		Sub(costs)
	return net.InexactFloat64()
}
