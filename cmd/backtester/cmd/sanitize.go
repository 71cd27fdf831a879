package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Clean a stored series and replace its clean copy",
	Long: `Run the sanitization pipeline over one raw series:

  1. drop candles with NaN fields
  2. drop candles that violate OHLC ordering or have negative volume
  3. remove duplicate timestamps and sort
  4. fill missing slots with flat zero-volume candles

The result replaces the series in the clean table and the report is
printed and written to journal.report_dir.

Example:
  backtester sanitize -e binance -s BTC/USDT -t 15m`,
	Args: cobra.NoArgs,
	RunE: runSanitize,
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)
	addSeriesFlags(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, args []string) error {
	applySeriesFlags()

	svc, store, err := openService()
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := svc.Sanitize(cmd.Context(), cfg.Data.Series())
	if err != nil {
		return fmt.Errorf("sanitize: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := res.Report.WriteTo(out); err != nil {
		return err
	}
	if res.ReportPath != "" {
		fmt.Fprintf(out, "\nReport saved to: %s\n", res.ReportPath)
	}
	return nil
}
