package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/config"
	"github.com/satori-nvr/satori/internal/observability"
	"github.com/satori-nvr/satori/internal/processor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the event processor",
	RunE:  runProcessor,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runProcessor(_ *cobra.Command, _ []string) error {
	var cfg processor.Config
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

	p, err := processor.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return p.Run(ctx)
}
