package cmd

import "github.com/spf13/cobra"

// archiveCmd groups the commands that operate directly on the archive.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Operate directly on the archive",
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
