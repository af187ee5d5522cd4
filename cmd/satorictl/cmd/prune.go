package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/storage/workflow"
)

var (
	pruneBefore    string
	pruneOlderThan time.Duration

	pruneReport  string
	pruneWorkers int
)

var pruneEventsCmd = &cobra.Command{
	Use:   "prune-events",
	Short: "Delete archived events older than a cutoff",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cutoff, err := pruneCutoff()
		if err != nil {
			return err
		}

		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		return workflow.PruneEventsOlderThan(cmd.Context(), provider, cutoff)
	},
}

func pruneCutoff() (time.Time, error) {
	switch {
	case pruneBefore != "" && pruneOlderThan != 0:
		return time.Time{}, fmt.Errorf("before and older-than are mutually exclusive")
	case pruneBefore != "":
		return time.Parse(time.RFC3339, pruneBefore)
	case pruneOlderThan != 0:
		return time.Now().Add(-pruneOlderThan), nil
	default:
		return time.Time{}, fmt.Errorf("one of before or older-than is required")
	}
}

var pruneSegmentsCmd = &cobra.Command{
	Use:   "prune-segments",
	Short: "Remove segments no archived event references",
	Long: `Removing unreferenced segments is a two step operation: calculate writes
a report of what would be removed, and delete removes the segments named in a
report. Review the report between the two steps.`,
}

var pruneSegmentsCalculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Write a report of unreferenced segments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		report, err := workflow.CalculateUnreferencedSegments(cmd.Context(), provider, pruneWorkers)
		if err != nil {
			return err
		}

		return report.Save(pruneReport)
	},
}

var pruneSegmentsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the segments named in a report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := workflow.LoadUnreferencedSegments(pruneReport)
		if err != nil {
			return err
		}

		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		return workflow.DeleteUnreferencedSegments(cmd.Context(), provider, report, pruneWorkers)
	},
}

func init() {
	pruneEventsCmd.Flags().StringVar(&pruneBefore, "before", "", "delete events from before this time (RFC3339)")
	pruneEventsCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "delete events older than this duration")

	pruneSegmentsCmd.PersistentFlags().StringVar(&pruneReport, "report", "unreferenced-segments.toml", "report file path")
	pruneSegmentsCmd.PersistentFlags().IntVar(&pruneWorkers, "workers", 8, "number of concurrent archive operations")
	pruneSegmentsCmd.AddCommand(pruneSegmentsCalculateCmd)
	pruneSegmentsCmd.AddCommand(pruneSegmentsDeleteCmd)

	archiveCmd.AddCommand(pruneEventsCmd)
	archiveCmd.AddCommand(pruneSegmentsCmd)
}
