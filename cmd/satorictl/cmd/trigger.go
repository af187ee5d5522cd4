package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/event"
)

var (
	triggerURL       string
	triggerID        string
	triggerTimestamp string
	triggerReason    string
	triggerCameras   []string
	triggerPre       int
	triggerPost      int
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Send a trigger to an event processor",
	Long: `Send a trigger to an event processor. Only the id is required; any field
not given here is filled from the processor's trigger templates.`,
	RunE: runTrigger,
}

func init() {
	rootCmd.AddCommand(triggerCmd)

	triggerCmd.Flags().StringVar(&triggerURL, "url", "http://localhost:8000", "event processor base URL")
	triggerCmd.Flags().StringVar(&triggerID, "id", "", "trigger id (required)")
	triggerCmd.Flags().StringVar(&triggerTimestamp, "timestamp", "", "trigger timestamp (RFC3339, default now)")
	triggerCmd.Flags().StringVar(&triggerReason, "reason", "", "why the event is being recorded")
	triggerCmd.Flags().StringSliceVar(&triggerCameras, "camera", nil, "camera to record (repeatable)")
	triggerCmd.Flags().IntVar(&triggerPre, "pre", -1, "seconds of video to keep before the trigger")
	triggerCmd.Flags().IntVar(&triggerPost, "post", -1, "seconds of video to keep after the trigger")
	_ = triggerCmd.MarkFlagRequired("id")
}

func runTrigger(cmd *cobra.Command, _ []string) error {
	trigger := event.TriggerCommand{
		ID:      triggerID,
		Cameras: triggerCameras,
	}

	if triggerTimestamp != "" {
		timestamp, err := time.Parse(time.RFC3339, triggerTimestamp)
		if err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		trigger.Timestamp = &timestamp
	}
	if cmd.Flags().Changed("reason") {
		trigger.Reason = &triggerReason
	}
	if triggerPre >= 0 {
		pre := event.Seconds(time.Duration(triggerPre) * time.Second)
		trigger.Pre = &pre
	}
	if triggerPost >= 0 {
		post := event.Seconds(time.Duration(triggerPost) * time.Second)
		trigger.Post = &post
	}

	payload, err := json.Marshal(trigger)
	if err != nil {
		return err
	}

	resp, err := http.Post(triggerURL+"/trigger", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sending trigger: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event processor returned status %d", resp.StatusCode)
	}

	fmt.Println("Trigger sent")
	return nil
}
