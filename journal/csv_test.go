package journal

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
)

func TestWriteTradesCSV(t *testing.T) {
	t.Parallel()

	entry := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	trades := []backtest.Trade{{
		EntryTime:    entry,
		ExitTime:     entry.Add(4 * time.Hour),
		Side:         backtest.Long,
		EntryPrice:   100,
		ExitPrice:    110,
		NetPnL:       8,
		PnLPct:       8,
		Result:       backtest.Win,
		EntryTrigger: "EMA_CROSS_UP",
		ExitTrigger:  "EMA_CROSS_DOWN",
		BarsInTrade:  4,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, trades))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, TradeColumns, rows[0])
	assert.Equal(t, []string{
		"2024-01-02T03:00:00Z", "2024-01-02T07:00:00Z", "LONG",
		"100.000000", "110.000000", "8.000000", "8.000000", "WIN",
		"EMA_CROSS_UP", "EMA_CROSS_DOWN", "4",
	}, rows[1])
}

func TestWriteEquityCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteEquityCSV(&buf, []float64{1000, 1008}))
	assert.Equal(t, "trade,equity\n0,1000.000000\n1,1008.000000\n", buf.String())
}

func TestExportTradesCSV(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	path, err := ExportTradesCSV(dir, "BTC_USDT_1h", nil, now)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "no directory for an empty ledger")

	trades := []backtest.Trade{{Side: backtest.Long, Result: backtest.Loss, NetPnL: -2}}
	path, err = ExportTradesCSV(dir, "BTC_USDT_1h", trades, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "BTC_USDT_1h_trades_20240506_070809.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(TradeColumns, ",")))
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
