// Package cmd implements the CLI commands for satori-archiver.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/version"
)

// cfgFile holds the config file path from the CLI flag.
var cfgFile string

// logLevel and logFormat override the config file's logging section when set.
var (
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "satori-archiver",
	Short:   "Storage API that archives events and video segments",
	Version: version.Short(),
	Long: `satori-archiver serves the storage API: it accepts events and segment
references from event processors, fetches the referenced video from the
agents, and writes everything to the archive, optionally encrypted.`,
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "satori-archiver.toml", "config file path")
}
