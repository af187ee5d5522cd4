package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var segmentOutput string

var listCamerasCmd = &cobra.Command{
	Use:   "list-cameras",
	Short: "List cameras with archived segments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		cameras, err := provider.ListCameras(cmd.Context())
		if err != nil {
			return err
		}

		for _, camera := range cameras {
			fmt.Println(camera)
		}
		return nil
	},
}

var listSegmentsCmd = &cobra.Command{
	Use:   "list-segments <camera>",
	Short: "List archived segments for a camera",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		filenames, err := provider.ListSegments(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, filename := range filenames {
			fmt.Println(filename)
		}
		return nil
	},
}

var getSegmentCmd = &cobra.Command{
	Use:   "get-segment <camera> <filename>",
	Short: "Retrieve an archived segment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		data, err := provider.GetSegment(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		if segmentOutput == "" || segmentOutput == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(segmentOutput, data, 0o644)
	},
}

var deleteSegmentCmd = &cobra.Command{
	Use:   "delete-segment <camera> <filename>",
	Short: "Delete an archived segment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		return provider.DeleteSegment(cmd.Context(), args[0], args[1])
	},
}

func init() {
	getSegmentCmd.Flags().StringVarP(&segmentOutput, "output", "o", "", "output file (default stdout)")

	archiveCmd.AddCommand(listCamerasCmd)
	archiveCmd.AddCommand(listSegmentsCmd)
	archiveCmd.AddCommand(getSegmentCmd)
	archiveCmd.AddCommand(deleteSegmentCmd)
}
