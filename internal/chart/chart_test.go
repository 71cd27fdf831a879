package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

var series = market.Series{Exchange: "binance", Symbol: "BTCUSDT", Timeframe: "1h"}

func sample() Input {
	var candles []market.Candle
	for i := 0; i < 30; i++ {
		px := 100 + float64(i%7)
		candles = append(candles, market.Candle{
			Exchange: series.Exchange, Symbol: series.Symbol, Timeframe: series.Timeframe,
			Timestamp: int64(i) * 3_600_000,
			Open:      px, High: px + 1, Low: px - 1, Close: px + 0.5, Volume: 1,
		})
	}
	return Input{
		Series:  series,
		Candles: candles,
		Trades: []backtest.Trade{{
			EntryTime:  candles[5].Time(),
			ExitTime:   candles[9].Time(),
			EntryPrice: candles[5].Close,
			ExitPrice:  candles[9].Close,
		}},
		Equity: []float64{1000, 1002},
		Fast:   3,
		Slow:   8,
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample()))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Equity Curve")
	assert.Contains(t, html, "EMA 3")
	assert.Contains(t, html, "EMA 8")
	assert.Contains(t, html, "Entry")
	assert.Contains(t, html, "Exit")
}

func TestRenderNothing(t *testing.T) {
	t.Parallel()

	err := Render(&bytes.Buffer{}, Input{Series: series})
	assert.Error(t, err)
}

func TestWindow(t *testing.T) {
	t.Parallel()

	in := sample()
	got := window(in.Candles, 3*3_600_000, 5*3_600_000)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3*3_600_000), got[0].Timestamp)
	assert.Len(t, window(in.Candles, 0, 0), len(in.Candles))
}

func TestRenderWindowed(t *testing.T) {
	t.Parallel()

	in := sample()
	in.Start = 20 * 3_600_000
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, in))
	assert.Contains(t, buf.String(), time.UnixMilli(in.Start).UTC().Format("2006-01-02 15:04"))
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "charts")
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	path, err := WriteFile(dir, "BTCUSDT_1h", sample(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "BTCUSDT_1h_chart_20240701_100000.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "Equity Curve"))
}

func TestLineDataSkipsNaN(t *testing.T) {
	t.Parallel()

	out := lineData([]float64{1.23456789, math.NaN()})
	assert.Equal(t, 1.234568, out[0].Value)
	assert.Nil(t, out[1].Value)
}
