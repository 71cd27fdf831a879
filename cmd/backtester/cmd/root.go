package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/app"
	"github.com/rustyeddy/backtester/internal/logger"
	"github.com/rustyeddy/backtester/journal"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "OHLCV sanitizer and single-position backtester",
	Long: `Backtester cleans stored OHLCV candle series and replays strategies
over them with a long-only, one-position-at-a-time engine.

It provides tools for:
  - Importing candle CSV files into a SQLite store
  - Sanitizing series (NaN, OHLC validation, duplicates, gap filling)
  - Backtesting the EMA crossover strategy with per-trade costs
  - Journaling runs with trade CSV, HTML charts and Org reports
  - Serving backtests and recorded runs over HTTP`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

var (
	cfgFile  string
	dbPath   string
	logLevel string

	cfg *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON; defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides data.db_path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides log.level)")
}

// setup loads the configuration and installs the process logger.
func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		c = loaded
	}
	if dbPath != "" {
		c.Data.DBPath = dbPath
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}

	l, err := logger.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	logger.Set(l)
	cfg = c
	return nil
}

// openService opens the configured store and builds the service on it.
// The caller closes the store.
func openService() (*app.Service, *journal.SQLite, error) {
	if dir := filepath.Dir(cfg.Data.DBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	store, err := journal.NewSQLite(cfg.Data.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	logger.L().Debug("store: open", zap.String("path", cfg.Data.DBPath))

	svc := app.New(store, app.Outputs{
		TradesDir: cfg.Journal.TradesDir,
		ReportDir: cfg.Journal.ReportDir,
		ChartDir:  cfg.Journal.ChartDir,
		OrgDir:    cfg.Journal.OrgDir,
	}, app.WithLogger(logger.L()))
	return svc, store, nil
}

var (
	flagExchange  string
	flagSymbol    string
	flagTimeframe string
)

// addSeriesFlags registers the series selectors on cmd.
func addSeriesFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagExchange, "exchange", "e", "", "exchange (overrides data.exchange)")
	cmd.Flags().StringVarP(&flagSymbol, "symbol", "s", "", "symbol, e.g. BTC/USDT (overrides data.symbol)")
	cmd.Flags().StringVarP(&flagTimeframe, "timeframe", "t", "", "timeframe, e.g. 15m (overrides data.timeframe)")
}

// applySeriesFlags copies set series flags into the loaded configuration.
func applySeriesFlags() {
	if flagExchange != "" {
		cfg.Data.Exchange = flagExchange
	}
	if flagSymbol != "" {
		cfg.Data.Symbol = flagSymbol
	}
	if flagTimeframe != "" {
		cfg.Data.Timeframe = flagTimeframe
	}
	cfg.Normalize()
}
