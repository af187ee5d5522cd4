package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/archiver"
	"github.com/satori-nvr/satori/internal/config"
	"github.com/satori-nvr/satori/internal/observability"
	"github.com/satori-nvr/satori/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the storage API server",
	RunE:  runArchiver,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runArchiver(_ *cobra.Command, _ []string) error {
	var cfg archiver.Config
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

	provider, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	return archiver.NewServer(cfg, provider, logger).Run(ctx)
}
