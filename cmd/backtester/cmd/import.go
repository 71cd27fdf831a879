package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|->",
	Short: "Import candles from a CSV file into the raw table",
	Long: `Read timestamp,open,high,low,close,volume rows into the raw ohlcv table.

The header row is optional. Timestamps are epoch milliseconds, RFC3339 or
YYYY-MM-DD. Malformed prices are kept as NaN for the sanitizer to count.
Rows already stored are skipped.

Example:
  backtester import data/btc_15m.csv -s BTC/USDT -t 15m`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	addSeriesFlags(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	applySeriesFlags()

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		fh, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fh.Close()
		r = fh
	}

	svc, store, err := openService()
	if err != nil {
		return err
	}
	defer store.Close()

	series := cfg.Data.Series()
	read, inserted, err := svc.Import(cmd.Context(), r, series)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %s %s %s\n", series.Exchange, series.Symbol, series.Timeframe)
	fmt.Fprintf(out, "  Rows read:     %d\n", read)
	fmt.Fprintf(out, "  Rows inserted: %d\n", inserted)
	fmt.Fprintf(out, "  Database:      %s\n", cfg.Data.DBPath)
	return nil
}
