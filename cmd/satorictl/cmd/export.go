package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/storage/workflow"
)

var (
	exportCamera string
	exportOutput string
)

var exportVideoCmd = &cobra.Command{
	Use:   "export-video <event-filename>",
	Short: "Export an event's video as a single MPEG-TS file",
	Long: `Export an event's video by concatenating its archived segments. The
camera may be omitted when the event covers exactly one camera.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		export, err := workflow.ExportEventVideo(cmd.Context(), provider, args[0], exportCamera)
		if err != nil {
			return err
		}

		output := exportOutput
		if output == "" {
			output = export.DefaultVideoFilename()
		}
		return os.WriteFile(output, export.Video, 0o644)
	},
}

func init() {
	exportVideoCmd.Flags().StringVar(&exportCamera, "camera", "", "camera to export")
	exportVideoCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default \"<event timestamp>_<camera>.mp4\")")

	archiveCmd.AddCommand(exportVideoCmd)
}
