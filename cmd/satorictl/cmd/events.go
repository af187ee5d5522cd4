package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listEventsCmd = &cobra.Command{
	Use:   "list-events",
	Short: "List archived events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		filenames, err := provider.ListEvents(cmd.Context())
		if err != nil {
			return err
		}

		for _, filename := range filenames {
			fmt.Println(filename)
		}
		return nil
	},
}

var getEventCmd = &cobra.Command{
	Use:   "get-event <filename>",
	Short: "Print an archived event as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		e, err := provider.GetEvent(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(e)
	},
}

var deleteEventCmd = &cobra.Command{
	Use:   "delete-event <filename>",
	Short: "Delete an archived event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := openProvider(cmd.Context())
		if err != nil {
			return err
		}

		return provider.DeleteEvent(cmd.Context(), args[0])
	},
}

func init() {
	archiveCmd.AddCommand(listEventsCmd)
	archiveCmd.AddCommand(getEventCmd)
	archiveCmd.AddCommand(deleteEventCmd)
}
