package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ecotracehq/ecotrace/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingest and metrics HTTP API",
	Long: "Serves the portal API: batch ingest, prompt optimization, receipt\n" +
		"listing, and savings metrics. Requests are scoped by the X-API-Key\n" +
		"header and rate limited per account.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	addr := flagAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	svc := server.New(server.Config{
		Addr:       addr,
		RatePerSec: cfg.Server.RatePerSec,
		RateBurst:  cfg.Server.RateBurst,
	}, st, carbonModel(cfg), log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return svc.Run(ctx)
}
