// Package archive implements the event processor's side of archival: tasks
// that submit events and video segments to the storage API, and a persistent
// retry queue for tasks that failed.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/satori-nvr/satori/internal/event"
)

// SegmentCommand is the request body for the storage API's segment upload
// endpoint. The archiver fetches the segment from this URL itself rather
// than receiving the bytes, so duplicate submissions stay cheap.
type SegmentCommand struct {
	SegmentURL string `json:"segment_url"`
}

// SegmentUpload names one camera segment to be archived.
type SegmentUpload struct {
	CameraName string `json:"camera_name"`
	URL        string `json:"url"`
}

// Operation is what a task submits to the storage API: either an event's
// metadata or a single camera segment. Exactly one field is set.
type Operation struct {
	Event   *event.Event   `json:"event,omitempty"`
	Segment *SegmentUpload `json:"segment,omitempty"`
}

// Task is one pending submission to one storage API.
type Task struct {
	// Birth is when the task was created. Older tasks are superseded by
	// newer descriptions of the same event, and expire out of the retry
	// queue.
	Birth time.Time `json:"birth"`

	// APIURL is the base URL of the storage API this task targets.
	APIURL string `json:"api_url"`

	Op Operation `json:"op"`
}

func newTasks(apiURLs []string, op Operation, birth time.Time) []Task {
	tasks := make([]Task, 0, len(apiURLs))
	for _, apiURL := range apiURLs {
		tasks = append(tasks, Task{
			Birth:  birth,
			APIURL: apiURL,
			Op:     op,
		})
	}
	return tasks
}

// NewEventTasks creates one event submission task per storage API.
func NewEventTasks(apiURLs []string, e event.Event, birth time.Time) []Task {
	return newTasks(apiURLs, Operation{Event: &e}, birth)
}

// NewSegmentTasks creates one segment submission task per storage API.
func NewSegmentTasks(apiURLs []string, camera, segmentURL string, birth time.Time) []Task {
	return newTasks(apiURLs, Operation{Segment: &SegmentUpload{
		CameraName: camera,
		URL:        segmentURL,
	}}, birth)
}

// Execute submits the task to its storage API. Any non-2xx response is an
// error.
func (t Task) Execute(ctx context.Context, client *http.Client) error {
	var (
		target string
		body   any
	)

	switch {
	case t.Op.Event != nil:
		target = joinURL(t.APIURL, "event")
		body = t.Op.Event

	case t.Op.Segment != nil:
		target = joinURL(t.APIURL, "video/"+url.PathEscape(t.Op.Segment.CameraName))
		body = SegmentCommand{SegmentURL: t.Op.Segment.URL}

	default:
		return fmt.Errorf("archive task has no operation")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding archive request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building archive request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("storage API call failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("storage API returned error status %d", resp.StatusCode)
	}

	return nil
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + path
}
