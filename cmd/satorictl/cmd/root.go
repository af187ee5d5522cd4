// Package cmd implements the CLI commands for satorictl.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/config"
	"github.com/satori-nvr/satori/internal/observability"
	"github.com/satori-nvr/satori/internal/storage"
	"github.com/satori-nvr/satori/internal/version"
)

// cfgFile holds the config file path from the CLI flag.
var cfgFile string

// logLevel and logFormat override the config file's logging section when set.
var (
	logLevel  string
	logFormat string
)

// ctlConfig is the satorictl configuration file: where the archive lives and
// how it is encrypted.
type ctlConfig struct {
	Storage storage.Config              `mapstructure:"storage"`
	Logging observability.LoggingConfig `mapstructure:"logging"`
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "satorictl",
	Short:   "Operator CLI for satori",
	Version: version.Short(),
	Long: `satorictl sends triggers to an event processor and operates directly on
the archive: listing, retrieving and deleting events and segments, exporting
event video, pruning, and generating encryption keys.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "satorictl.toml", "config file path")
}

// openProvider loads the configuration file and opens the archive.
func openProvider(ctx context.Context) (*storage.Provider, error) {
	var cfg ctlConfig
	if err := config.Load(cfgFile, &cfg); err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	observability.SetDefault(observability.NewLogger(cfg.Logging))

	return storage.NewProvider(ctx, cfg.Storage)
}
