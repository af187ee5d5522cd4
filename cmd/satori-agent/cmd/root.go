// Package cmd implements the CLI commands for satori-agent.
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
	Use:     "satori-agent",
	Short:   "Camera agent that restreams a camera as HLS",
	Version: version.Short(),
	Long: `satori-agent keeps an ffmpeg process restreaming a camera into an HLS
playlist of timestamped segments, and serves that playlist over HTTP with
time-window filtering for the event processor.`,
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "satori-agent.toml", "config file path")
}
