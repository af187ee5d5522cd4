// Package workflow implements the maintenance operations that run against
// the archive: exporting event video, pruning expired events and removing
// segments no event references any more.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/storage"
)

var (
	// ErrNoSuchCamera is returned when an event has no segments for the
	// requested camera.
	ErrNoSuchCamera = errors.New("camera was not found")

	// ErrCameraMustBeSpecified is returned when an event covers several
	// cameras and none was selected.
	ErrCameraMustBeSpecified = errors.New("a camera was not specified, but is required to be")

	// ErrPartial indicates a workflow completed only a subset of its
	// actions. Details are in the logs.
	ErrPartial = errors.New("workflow resulted in a subset of actions being successful")
)

// Export is the result of exporting one camera of an event: the
// concatenated video and enough context to name the output file.
type Export struct {
	Event  event.Event
	Camera string
	Video  []byte
}

// DefaultVideoFilename derives the output filename from the event's
// timestamp and the exported camera.
func (x Export) DefaultVideoFilename() string {
	return fmt.Sprintf("%s_%s.mp4", x.Event.Metadata.Timestamp.Format(event.FilenameTimeLayout), x.Camera)
}

// ExportEventVideo concatenates the archived segments of one camera of an
// event into a single MPEG-TS stream. camera may be empty when the event
// covers exactly one camera.
func ExportEventVideo(ctx context.Context, provider *storage.Provider, eventFilename, camera string) (*Export, error) {
	slog.Info("Getting event", "filename", eventFilename)
	e, err := provider.GetEvent(ctx, eventFilename)
	if err != nil {
		return nil, err
	}

	selected, err := cameraFromEvent(&e, camera)
	if err != nil {
		return nil, err
	}

	var video bytes.Buffer
	for _, segment := range selected.SegmentList {
		slog.Info("Getting segment", "camera", selected.Name, "filename", segment)
		data, err := provider.GetSegment(ctx, selected.Name, segment)
		if err != nil {
			return nil, err
		}
		video.Write(data)
	}

	return &Export{Event: e, Camera: selected.Name, Video: video.Bytes()}, nil
}

func cameraFromEvent(e *event.Event, name string) (*event.CameraSegments, error) {
	if name == "" {
		if len(e.Cameras) == 1 {
			return &e.Cameras[0], nil
		}
		return nil, ErrCameraMustBeSpecified
	}

	if camera := e.Camera(name); camera != nil {
		return camera, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSuchCamera, name)
}

// PruneEventsOlderThan deletes every archived event whose trigger timestamp
// is before the cutoff. Events whose filename cannot be parsed, or whose
// deletion fails, are logged and skipped; either case makes the whole run
// report ErrPartial.
func PruneEventsOlderThan(ctx context.Context, provider *storage.Provider, cutoff time.Time) error {
	slog.Info("Getting event list")
	filenames, err := provider.ListEvents(ctx)
	if err != nil {
		return err
	}

	var result error

	var doomed []string
	for _, filename := range filenames {
		metadata, err := event.MetadataFromFilename(filename)
		if err != nil {
			slog.Error("Failed to parse metadata from filename", "filename", filename)
			result = ErrPartial
			continue
		}
		if metadata.Timestamp.Before(cutoff) {
			doomed = append(doomed, filename)
		}
	}

	for _, filename := range doomed {
		slog.Info("Pruning event", "filename", filename)
		if err := provider.DeleteEvent(ctx, filename); err != nil {
			slog.Error("Failed to remove event file", "filename", filename, "error", err)
			result = ErrPartial
		}
	}

	return result
}
