package processor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/satori-nvr/satori/internal/archive"
	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/hls"
	"github.com/satori-nvr/satori/internal/storage"
)

// eventSetKey is where active events are persisted in the state store.
const eventSetKey = "active_events.json"

// EventSet holds the active events, persisted across restarts so an in
// progress event survives a processor crash.
type EventSet struct {
	store    storage.Backend
	eventTTL time.Duration
	events   []event.Event
}

// NewEventSet loads the active events from the state store. A missing or
// unreadable state file starts an empty set.
func NewEventSet(ctx context.Context, store storage.Backend, eventTTL time.Duration) *EventSet {
	s := &EventSet{store: store, eventTTL: eventTTL}

	data, err := store.Get(ctx, eventSetKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("Failed to load active events, starting empty", "error", err)
		}
		return s
	}

	if err := json.Unmarshal(data, &s.events); err != nil {
		slog.Warn("Corrupt active events state, starting empty", "error", err)
		s.events = nil
	}

	return s
}

// Len returns the number of active events.
func (s *EventSet) Len() int {
	return len(s.events)
}

// Save persists the active events. Failures are logged, not fatal: the set
// stays usable in memory.
func (s *EventSet) Save(ctx context.Context) {
	data, err := json.Marshal(s.events)
	if err != nil {
		slog.Error("Failed to encode active events", "error", err)
		return
	}

	if err := s.store.Put(ctx, eventSetKey, data); err != nil {
		slog.Error("Failed to save active events", "error", err)
	}
}

// Trigger merges a trigger into the matching active event, or starts a new
// event if none matches, and persists the set. At most one active event
// exists per id, so triggers match on id alone: a re-trigger stamped with a
// later timestamp still lands on the same event.
func (s *EventSet) Trigger(ctx context.Context, t event.Trigger) {
	if existing := s.find(t.Metadata.ID); existing != nil {
		slog.Info("Merging trigger into existing event", "id", t.Metadata.ID)
		existing.Merge(t)
	} else {
		slog.Info("Creating new event for trigger", "id", t.Metadata.ID)
		s.events = append(s.events, event.New(t))
	}

	s.Save(ctx)
}

func (s *EventSet) find(id string) *event.Event {
	for i := range s.events {
		if s.events[i].Metadata.ID == id {
			return &s.events[i]
		}
	}
	return nil
}

// Process runs one processing pass: for each active event, fetch each
// camera's playlist, record segments newly inside the event window, and
// collect archive tasks for the new segments and the updated event. Expired
// events are pruned afterwards and the set is persisted.
//
// Tasks are returned rather than submitted so callers never block on the
// archive pipeline while holding the event set.
func (s *EventSet) Process(ctx context.Context, client *HLSClient, apiURLs []string) []archive.Task {
	now := time.Now()

	var tasks []archive.Task
	for i := range s.events {
		tasks = append(tasks, s.processEvent(ctx, &s.events[i], client, apiURLs, now)...)
	}

	s.pruneExpired(now)
	s.Save(ctx)
	return tasks
}

func (s *EventSet) processEvent(ctx context.Context, e *event.Event, client *HLSClient, apiURLs []string, now time.Time) []archive.Task {
	var tasks []archive.Task

	for i := range e.Cameras {
		camera := &e.Cameras[i]

		segments, err := client.GetPlaylist(ctx, camera.Name)
		if err != nil {
			slog.Warn("Failed to get segments for camera", "camera", camera.Name, "error", err)
			continue
		}

		for _, segment := range hls.Between(segments, e.Start, e.End) {
			if slices.Contains(camera.SegmentList, segment.Name) {
				continue
			}

			segmentURL, err := client.SegmentURL(camera.Name, segment)
			if err != nil {
				slog.Warn("Failed to resolve segment URL", "camera", camera.Name, "segment", segment.Name, "error", err)
				continue
			}

			slog.Info("Submitting new segment for archive", "camera", camera.Name, "segment", segment.Name)
			tasks = append(tasks, archive.NewSegmentTasks(apiURLs, camera.Name, segmentURL, now)...)

			camera.SegmentList = append(camera.SegmentList, segment.Name)
		}
	}

	return append(tasks, archive.NewEventTasks(apiURLs, e.Clone(), now)...)
}

func (s *EventSet) pruneExpired(now time.Time) {
	s.events = slices.DeleteFunc(s.events, func(e event.Event) bool {
		if e.ShouldExpire(s.eventTTL, now) {
			slog.Info("Pruning expired event", "filename", e.Metadata.Filename())
			return true
		}
		return false
	})
}
