package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

// helper to create a candle with close only
func candle(close float64) market.Candle {
	return market.Candle{Close: close}
}

func TestEMA_WarmupAndReady(t *testing.T) {
	ema := NewEMA(3)

	require.False(t, ema.Ready())
	require.Equal(t, 3, ema.Warmup())
	require.Equal(t, "EMA(3)", ema.Name())

	ema.Update(candle(1.0))
	require.False(t, ema.Ready())

	ema.Update(candle(2.0))
	require.False(t, ema.Ready())

	ema.Update(candle(3.0))
	require.True(t, ema.Ready())
}

func TestEMA_KnownSequence(t *testing.T) {
	ema := NewEMA(3)

	// alpha = 2/(3+1) = 0.5
	// 10 -> 10, 11 -> 10.5, 12 -> 11.25, 13 -> 12.125
	for _, v := range []float64{10, 11, 12, 13} {
		ema.Update(candle(v))
	}

	require.True(t, ema.Ready())
	require.InDelta(t, 12.125, ema.Value(), 1e-9)
}

func TestEMA_Reset(t *testing.T) {
	ema := NewEMA(2)
	ema.Update(candle(5))
	ema.Update(candle(7))
	require.True(t, ema.Ready())

	ema.Reset()
	require.False(t, ema.Ready())
	require.Equal(t, 0.0, ema.Value())

	ema.Update(candle(9))
	require.Equal(t, 9.0, ema.Value())
}

func TestEMASeries(t *testing.T) {
	got := EMASeries([]float64{10, 11, 12, 13}, 3)
	want := []float64{10, 10.5, 11.25, 12.125}
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-9)
	}
}

func TestNewEMAPanicsOnBadPeriod(t *testing.T) {
	require.Panics(t, func() { NewEMA(0) })
}
