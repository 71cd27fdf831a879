package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(i int) time.Time { return t0.Add(time.Duration(i) * 15 * time.Minute) }

func sig(i int, px float64, s Signal) Bar {
	return Bar{Index: i, Time: at(i), Price: px, Signal: s, Trigger: s.String()}
}

func TestEngineRoundTrip(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	assert.Equal(t, Flat, e.State())

	act, err := e.OnSignal(sig(3, 100, Enter))
	require.NoError(t, err)
	assert.Equal(t, Opened, act)
	assert.Equal(t, InPosition, e.State())

	pos, ok := e.Position()
	require.True(t, ok)
	assert.Equal(t, Long, pos.Side)
	assert.Equal(t, 100.0, pos.EntryPrice)
	assert.Equal(t, 3, pos.EntryIdx)
	assert.Equal(t, at(3), pos.EntryTime)

	act, err = e.OnSignal(sig(7, 110, Exit))
	require.NoError(t, err)
	assert.Equal(t, Closed, act)
	assert.Equal(t, Flat, e.State())

	trades := e.Trades()
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, 8.0, tr.NetPnL)
	assert.InDelta(t, 8.0, tr.PnLPct, 1e-12)
	assert.Equal(t, Win, tr.Result)
	assert.Equal(t, 4, tr.BarsInTrade)
	assert.Equal(t, "ENTER", tr.EntryTrigger)
	assert.Equal(t, "EXIT", tr.ExitTrigger)
	assert.Equal(t, at(3), tr.EntryTime)
	assert.Equal(t, at(7), tr.ExitTime)

	assert.Equal(t, []float64{1000, 1008}, e.Equity())
}

func TestEngineNoOps(t *testing.T) {
	t.Parallel()

	t.Run("exit while flat", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(DefaultConfig())
		act, err := e.OnSignal(sig(0, 100, Exit))
		require.NoError(t, err)
		assert.Equal(t, Ignored, act)
		assert.Equal(t, Flat, e.State())
		assert.Empty(t, e.Trades())
		assert.Equal(t, []float64{1000}, e.Equity())
	})

	t.Run("redundant enter", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(DefaultConfig())
		_, err := e.OnSignal(sig(0, 100, Enter))
		require.NoError(t, err)

		act, err := e.OnSignal(sig(1, 150, Enter))
		require.NoError(t, err)
		assert.Equal(t, Ignored, act)

		pos, ok := e.Position()
		require.True(t, ok)
		assert.Equal(t, 100.0, pos.EntryPrice, "entry must not move")
		assert.Equal(t, []float64{1000}, e.Equity())
	})

	t.Run("none signal", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(DefaultConfig())
		act, err := e.OnSignal(sig(0, 100, None))
		require.NoError(t, err)
		assert.Equal(t, Ignored, act)
		assert.Equal(t, Flat, e.State())
	})
}

func TestEngineLossAndZeroEntry(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{InitialCapital: 500, Commission: 0.5, Slippage: 0.5})
	_, _ = e.OnSignal(sig(0, 0, Enter))
	_, _ = e.OnSignal(sig(1, 1, Exit))
	_, _ = e.OnSignal(sig(2, 50, Enter))
	_, _ = e.OnSignal(sig(3, 45, Exit))

	trades := e.Trades()
	require.Len(t, trades, 2)

	assert.Equal(t, 0.0, trades[0].NetPnL)
	assert.Equal(t, 0.0, trades[0].PnLPct, "zero entry price yields zero pct")
	assert.Equal(t, Loss, trades[0].Result, "zero net is not a win")

	assert.Equal(t, -6.0, trades[1].NetPnL)
	assert.InDelta(t, -12.0, trades[1].PnLPct, 1e-12)
	assert.Equal(t, Loss, trades[1].Result)

	assert.Equal(t, []float64{500, 500, 494}, e.Equity())
}

func TestEngineEquityInvariant(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	signals := []Signal{Enter, Enter, None, Exit, Exit, Enter, Exit, Enter}
	prices := []float64{10, 11, 12, 13, 14, 15, 14, 20}
	for i, s := range signals {
		_, err := e.OnSignal(sig(i, prices[i], s))
		require.NoError(t, err)
		assert.Len(t, e.Equity(), len(e.Trades())+1)
	}
	assert.Len(t, e.Trades(), 2)
	assert.Equal(t, InPosition, e.State())
}

func TestEngineBarOrder(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	_, err := e.OnSignal(sig(5, 100, Enter))
	require.NoError(t, err)

	for _, idx := range []int{5, 4} {
		act, err := e.OnSignal(sig(idx, 120, Exit))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrBarOrder))
		assert.Equal(t, Ignored, act)
	}
	assert.Equal(t, InPosition, e.State(), "rejected bar leaves state untouched")
	assert.Empty(t, e.Trades())
}

func TestEngineCopiesAreIndependent(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	_, _ = e.OnSignal(sig(0, 100, Enter))
	_, _ = e.OnSignal(sig(1, 110, Exit))

	eq := e.Equity()
	eq[0] = -1
	tr := e.Trades()
	tr[0].NetPnL = 0

	assert.Equal(t, 1000.0, e.Equity()[0])
	assert.Equal(t, 8.0, e.Trades()[0].NetPnL)
}

func TestParseSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Signal
	}{
		{"ENTER", Enter},
		{"long", Enter},
		{" EXIT ", Exit},
		{"", None},
		{"SHORT", None},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSignal(tt.in), tt.in)
	}
	assert.Equal(t, "LONG", Long.String())
	assert.Equal(t, "FLAT", Flat.String())
	assert.Equal(t, "IN_POSITION", InPosition.String())
}
