package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

const (
	TriggerCrossUp   = "EMA_CROSS_UP"
	TriggerCrossDown = "EMA_CROSS_DOWN"
)

// EMACross is long-only: it enters when the fast EMA crosses above the slow
// EMA and exits on the opposite cross. Both crosses are strict; touching the
// other line is not a cross.
type EMACross struct {
	FastPeriod int `json:"ema_fast"`
	SlowPeriod int `json:"ema_slow"`

	fast *indicators.EMA
	slow *indicators.EMA

	prevFast, prevSlow float64
	havePrev           bool
}

func NewEMACross(fast, slow int) (*EMACross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("ema_cross: %w: periods must be positive (fast=%d slow=%d)", ErrInvalidParams, fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("ema_cross: %w: fast period %d must be below slow period %d", ErrInvalidParams, fast, slow)
	}
	return &EMACross{
		FastPeriod: fast,
		SlowPeriod: slow,
		fast:       indicators.NewEMA(fast),
		slow:       indicators.NewEMA(slow),
	}, nil
}

func (s *EMACross) Name() string { return "ema_cross" }

// Warmup is the first bar index at which signals are acted on.
func (s *EMACross) Warmup() int { return s.SlowPeriod + 1 }

func (s *EMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.prevFast, s.prevSlow = 0, 0
	s.havePrev = false
}

func (s *EMACross) Update(c market.Candle) backtest.Decision {
	s.fast.Update(c)
	s.slow.Update(c)
	f, sl := s.fast.Value(), s.slow.Value()

	var d backtest.Decision
	if s.havePrev {
		switch {
		case s.prevFast < s.prevSlow && f > sl:
			d = backtest.Decision{Signal: backtest.Enter, Trigger: TriggerCrossUp}
		case s.prevFast > s.prevSlow && f < sl:
			d = backtest.Decision{Signal: backtest.Exit, Trigger: TriggerCrossDown}
		}
	}

	s.prevFast, s.prevSlow = f, sl
	s.havePrev = true
	return d
}
