package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/internal/api"
	"github.com/rustyeddy/backtester/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve backtests and recorded runs over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  POST /api/backtests       run a backtest
  GET  /api/runs            list recorded runs
  GET  /api/runs/:id        one run
  GET  /api/runs/:id/trades trades of one run
  GET  /healthz             liveness

Example:
  backtester serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	svc, store, err := openService()
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := api.NewServer(api.Config{
		Addr:     cfg.Server.Addr,
		Service:  svc,
		Defaults: cfg,
		Log:      logger.L(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}
