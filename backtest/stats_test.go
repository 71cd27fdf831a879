package backtest

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trades(pnl ...float64) []Trade {
	out := make([]Trade, len(pnl))
	for i, p := range pnl {
		out[i] = Trade{NetPnL: p}
	}
	return out
}

func curve(initial float64, pnl ...float64) []float64 {
	eq := []float64{initial}
	for _, p := range pnl {
		eq = append(eq, eq[len(eq)-1]+p)
	}
	return eq
}

func TestComputeStatsEmpty(t *testing.T) {
	t.Parallel()

	s, ok := ComputeStats(nil, []float64{1000})
	assert.False(t, ok)
	assert.Equal(t, Stats{}, s)
}

func TestComputeStatsMixed(t *testing.T) {
	t.Parallel()

	pnl := []float64{10, -5, 20, -5, 0}
	s, ok := ComputeStats(trades(pnl...), curve(1000, pnl...))
	require.True(t, ok)

	assert.Equal(t, 5, s.TotalTrades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 20.0, s.TotalNetProfit)
	assert.Equal(t, 3.0, s.ProfitFactor)
	assert.Equal(t, 15.0, s.AvgWin)
	assert.Equal(t, -5.0, s.AvgLoss)
	assert.Equal(t, 0.4, s.WinRate)
	assert.Equal(t, 0.4, s.LossRate)
	// (15*0.4 + -5*0.4) / 5
	assert.InDelta(t, 0.8, s.Expectancy, 1e-12)
	// peak 1010, trough 1005
	assert.InDelta(t, (1005.0-1010.0)/1010.0*100, s.MaxDrawdownPct, 1e-9)
}

func TestComputeStatsAllWinners(t *testing.T) {
	t.Parallel()

	s, ok := ComputeStats(trades(5, 8), curve(1000, 5, 8))
	require.True(t, ok)

	assert.True(t, math.IsInf(s.ProfitFactor, 1))
	assert.Equal(t, 0.0, s.AvgLoss)
	assert.True(t, math.IsNaN(s.Expectancy))
	assert.Equal(t, 0.0, s.MaxDrawdownPct)
	assert.Equal(t, 1.0, s.WinRate)
	assert.Equal(t, 0.0, s.LossRate)
}

func TestComputeStatsSingleTrade(t *testing.T) {
	t.Parallel()

	s, ok := ComputeStats(trades(-3), curve(1000, -3))
	require.True(t, ok)
	assert.Equal(t, 0.0, s.ProfitFactor)
	assert.Equal(t, 0.0, s.TradePnLSlope, "one point has no slope")
	assert.Equal(t, -3.0, s.EquitySlope)
	assert.InDelta(t, -1.0, s.Expectancy, 1e-12)
}

func TestMaxDrawdownPct(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -25.0, MaxDrawdownPct([]float64{1000, 1200, 900, 1500}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdownPct([]float64{1000, 1100, 1200}))
	assert.Equal(t, 0.0, MaxDrawdownPct(nil))
	assert.Equal(t, 0.0, MaxDrawdownPct([]float64{0, -5, -10}), "non-positive peaks are skipped")
}

func TestSlope(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Slope(nil))
	assert.Equal(t, 0.0, Slope([]float64{7}))
	assert.InDelta(t, 2.0, Slope([]float64{1, 3, 5, 7}), 1e-12)
	assert.InDelta(t, 0.0, Slope([]float64{4, 4, 4}), 1e-12)
	assert.InDelta(t, -0.5, Slope([]float64{1, 0.5, 0}), 1e-12)
}

func TestComputeStatsDeterministic(t *testing.T) {
	t.Parallel()

	pnl := []float64{3.5, -1.25, 7, -2, 0.5}
	a, _ := ComputeStats(trades(pnl...), curve(1000, pnl...))
	b, _ := ComputeStats(trades(pnl...), curve(1000, pnl...))
	assert.Equal(t, a, b)
}

func TestStatsJSON(t *testing.T) {
	t.Parallel()

	s, ok := ComputeStats(trades(5, 8), curve(1000, 5, 8))
	require.True(t, ok)

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "+Inf", raw["profit_factor"])
	assert.Nil(t, raw["expectancy"])
	assert.Equal(t, 13.0, raw["total_net_profit"])
	assert.Equal(t, 2.0, raw["total_trades"])

	var back Stats
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, math.IsInf(back.ProfitFactor, 1))
	assert.True(t, math.IsNaN(back.Expectancy))
	assert.Equal(t, s.TotalNetProfit, back.TotalNetProfit)
	assert.Equal(t, s.EquitySlope, back.EquitySlope)
}

func TestStatsMapLabels(t *testing.T) {
	t.Parallel()

	s, _ := ComputeStats(trades(10, -5), curve(1000, 10, -5))
	m := s.Map()
	assert.Len(t, m, len(Labels))
	for _, l := range Labels {
		_, ok := m[l]
		assert.True(t, ok, l)
	}
	assert.Equal(t, 2.0, m["Total trades"])
	assert.Equal(t, 10.0, m["Avg Trade Net Profit"])
	assert.Equal(t, -5.0, m["Avg Trade Net Loss"])
}
