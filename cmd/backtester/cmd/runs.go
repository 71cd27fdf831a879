package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query recorded backtest runs",
	Long: `Query and display backtest runs recorded in the SQLite database.

Subcommands:
  list   - List the most recent runs
  show   - Print one run as an Org report
  trades - Print the trades of one run as CSV

Examples:
  backtester runs list -n 10
  backtester runs show 01HZX3Q4J6V6H9W2W4K3B1N8ZC
  backtester runs trades 01HZX3Q4J6V6H9W2W4K3B1N8ZC > trades.csv`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a run as an Org report",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "Print the trades of a run as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsTrades,
}

var runsLimit int

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsTradesCmd)

	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs (0 for all)")
}

func openStore() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(cfg.Data.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := openStore()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSTRATEGY\tSYMBOL\tTF\tTRADES\tNET P/L\tPROFIT FACTOR")
	for _, r := range runs {
		pf := "n/a"
		if r.Stats != nil {
			pf = backtest.FormatStat(r.Stats.ProfitFactor)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Strategy,
			r.Symbol, r.Timeframe, r.TradeCount, r.NetPnL(), pf)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, err := openStore()
	if err != nil {
		return err
	}
	defer j.Close()

	doc, err := j.ExportRunOrg(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), doc)
	return nil
}

func runRunsTrades(cmd *cobra.Command, args []string) error {
	j, err := openStore()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	if _, err := j.GetRun(ctx, args[0]); err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTrades(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	return journal.WriteTradesCSV(cmd.OutOrStdout(), trades)
}
