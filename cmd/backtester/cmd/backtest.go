package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/internal/app"
	"github.com/rustyeddy/backtester/journal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest a strategy over a stored series",
	Long: `Replay a stored candle series through a strategy and the single
position engine. Fills happen at the bar close; commission and slippage
are charged once per closed trade.

The run is recorded in the database with its trades. Trade CSV, HTML chart
and Org report files go to the journal directories of the configuration.

Example:
  backtester backtest -s BTC/USDT -t 15m --fast 9 --slow 21 --start 2024-01-01`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btStrategy   string
	btFast       int
	btSlow       int
	btStart      string
	btEnd        string
	btRaw        bool
	btCapital    float64
	btCommission float64
	btSlippage   float64
	btEquityCSV  string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	addSeriesFlags(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVar(&btStrategy, "strategy", "", "strategy name (ema_cross, noop)")
	f.IntVar(&btFast, "fast", 0, "ema_cross: fast EMA period")
	f.IntVar(&btSlow, "slow", 0, "ema_cross: slow EMA period")
	f.StringVar(&btStart, "start", "", "first bar, YYYY-MM-DD or RFC3339 (inclusive)")
	f.StringVar(&btEnd, "end", "", "last bar, YYYY-MM-DD or RFC3339 (inclusive)")
	f.BoolVar(&btRaw, "raw", false, "read the raw table instead of the clean one")
	f.Float64Var(&btCapital, "capital", 0, "initial capital")
	f.Float64Var(&btCommission, "commission", 0, "commission per closed trade")
	f.Float64Var(&btSlippage, "slippage", 0, "slippage per closed trade")
	f.StringVar(&btEquityCSV, "equity-csv", "", "also write the equity curve to this CSV file")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	applySeriesFlags()
	applyBacktestFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	start, end, err := cfg.Data.Range()
	if err != nil {
		return err
	}

	svc, store, err := openService()
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := svc.RunBacktest(cmd.Context(), app.BacktestRequest{
		Series:   cfg.Data.Series(),
		Start:    start,
		End:      end,
		UseClean: cfg.Data.UseClean,
		Strategy: cfg.Strategy.Name,
		Params:   cfg.Strategy.Params(),
		Config:   cfg.Backtest,
	})
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	w := cmd.OutOrStdout()
	backtest.PrintResult(w, out.Result)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run ID:        %s\n", out.Run.ID)
	if out.Run.CSVPath != "" {
		fmt.Fprintf(w, "Trades CSV:    %s\n", out.Run.CSVPath)
	}
	if out.Run.ChartPath != "" {
		fmt.Fprintf(w, "Chart:         %s\n", out.Run.ChartPath)
	}
	if out.OrgPath != "" {
		fmt.Fprintf(w, "Org report:    %s\n", out.OrgPath)
	}

	if btEquityCSV != "" {
		if err := writeEquityCSV(btEquityCSV, out.Result.Equity); err != nil {
			return fmt.Errorf("equity csv: %w", err)
		}
		fmt.Fprintf(w, "Equity CSV:    %s\n", btEquityCSV)
	}
	return nil
}

// applyBacktestFlags copies explicitly set flags over the configuration.
func applyBacktestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("strategy") {
		cfg.Strategy.Name = btStrategy
	}
	if f.Changed("fast") {
		cfg.Strategy.EMAFast = btFast
	}
	if f.Changed("slow") {
		cfg.Strategy.EMASlow = btSlow
	}
	if f.Changed("start") {
		cfg.Data.Start = btStart
	}
	if f.Changed("end") {
		cfg.Data.End = btEnd
	}
	if f.Changed("raw") {
		cfg.Data.UseClean = !btRaw
	}
	if f.Changed("capital") {
		cfg.Backtest.InitialCapital = btCapital
	}
	if f.Changed("commission") {
		cfg.Backtest.Commission = btCommission
	}
	if f.Changed("slippage") {
		cfg.Backtest.Slippage = btSlippage
	}
}

func writeEquityCSV(path string, equity []float64) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := journal.WriteEquityCSV(fh, equity); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
