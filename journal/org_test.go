package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	entry := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	tr := backtest.Trade{
		EntryTime:    entry,
		ExitTime:     entry.Add(2 * time.Hour),
		Side:         backtest.Long,
		EntryPrice:   1.085,
		ExitPrice:    1.0875,
		NetPnL:       -1.9975,
		PnLPct:       -184.1,
		Result:       backtest.Loss,
		EntryTrigger: "EMA_CROSS_UP",
		ExitTrigger:  "EMA_CROSS_DOWN",
		BarsInTrade:  8,
	}

	out := FormatTradeOrg("RUN1", 0, tr)
	assert.Contains(t, out, "*** Trade 1: LONG LOSS")
	assert.Contains(t, out, ":RUN_ID: RUN1")
	assert.Contains(t, out, ":ENTRY_TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, out, ":EXIT_TIME: 2024-03-15T12:30:45Z")
	assert.Contains(t, out, ":ENTRY_PRICE: 1.08500")
	assert.Contains(t, out, ":EXIT_PRICE: 1.08750")
	assert.Contains(t, out, ":NET_PNL: -2.00")
	assert.Contains(t, out, ":BARS: 8")
	assert.True(t, strings.HasSuffix(out, ":END:\n"))

	assert.NotContains(t, FormatTradeOrg("", 1, tr), ":RUN_ID:")
}

func TestExportRunOrg(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	run, trades := sampleRun(t, "R42", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 10, -4)
	run.CSVPath = "out/r42.csv"
	require.NoError(t, j.RecordRun(ctx, run, trades))

	out, err := j.ExportRunOrg(ctx, "R42")
	require.NoError(t, err)

	assert.Contains(t, out, "* BACKTEST: ema_cross BTC/USDT 1h")
	assert.Contains(t, out, ":RUN_ID:      R42")
	assert.Contains(t, out, ":START_DATE:  2024-02-01")
	assert.Contains(t, out, ":END_BAL:     1006.00")
	assert.Contains(t, out, ":NET_PL:      6.00")
	assert.Contains(t, out, ":RETURN_PCT:  0.60")
	assert.Contains(t, out, ":CREATED:     [2024-03-01 Fri 09:00]")
	assert.Contains(t, out, `"ema_fast":9`)
	assert.Contains(t, out, "| Profit Factor | 2.5000 |")
	assert.Contains(t, out, "| Total trades | 2.0000 |")
	assert.Contains(t, out, "[[file:out/r42.csv]]")
	assert.Equal(t, 2, strings.Count(out, "*** Trade "))
	assert.Contains(t, out, ":RUN_ID: R42")

	_, err = j.ExportRunOrg(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestFormatRunOrgNoTrades(t *testing.T) {
	t.Parallel()

	run, trades := sampleRun(t, "R0", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	out, err := FormatRunOrg(run, trades)
	require.NoError(t, err)
	assert.Contains(t, out, "No trades were closed.")
	assert.NotContains(t, out, "** Trades")

	path := filepath.Join(t.TempDir(), "r0.org")
	require.NoError(t, SaveRunOrg(path, run, trades))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}
