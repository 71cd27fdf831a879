package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rustyeddy/backtester/backtest"
)

// TradeColumns is the header of a trade export.
var TradeColumns = []string{
	"entry_time", "exit_time", "side", "entry_price", "exit_price",
	"pnl_pct", "net_pnl", "result", "entry_trigger", "exit_trigger", "bars_in_trade",
}

// WriteTradesCSV writes a header and one row per trade.
func WriteTradesCSV(w io.Writer, trades []backtest.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeColumns); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write([]string{
			t.EntryTime.UTC().Format(time.RFC3339),
			t.ExitTime.UTC().Format(time.RFC3339),
			t.Side.String(),
			f(t.EntryPrice),
			f(t.ExitPrice),
			f(t.PnLPct),
			f(t.NetPnL),
			string(t.Result),
			t.EntryTrigger,
			t.ExitTrigger,
			strconv.Itoa(t.BarsInTrade),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes the equity curve, one point per closed trade after
// the initial capital at index 0.
func WriteEquityCSV(w io.Writer, equity []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"trade", "equity"}); err != nil {
		return err
	}
	for i, e := range equity {
		if err := cw.Write([]string{strconv.Itoa(i), f(e)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportTradesCSV writes <dir>/<prefix>_trades_<YYYYmmdd_HHMMSS>.csv and
// returns its path. Nothing is written for an empty ledger and the returned
// path is empty.
func ExportTradesCSV(dir, prefix string, trades []backtest.Trade, now time.Time) (string, error) {
	if len(trades) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_trades_%s.csv", prefix, now.UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	fh, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteTradesCSV(fh, trades); err != nil {
		_ = fh.Close()
		return "", err
	}
	if err := fh.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
