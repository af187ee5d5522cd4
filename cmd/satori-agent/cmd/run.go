package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/agent"
	"github.com/satori-nvr/satori/internal/config"
	"github.com/satori-nvr/satori/internal/observability"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the camera agent",
	RunE:  runAgent,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAgent(_ *cobra.Command, _ []string) error {
	var cfg agent.Config
	if err := config.Load(cfgFile, &cfg); err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger := observability.NewLogger(cfg.Logging)
	observability.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return agent.NewServer(cfg, logger).Run(ctx)
}
