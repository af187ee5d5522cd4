// Package event defines the satori data model: triggers, the events they
// merge into, and the filename conventions that tie events to archived
// objects.
package event

import (
	"fmt"
	"regexp"
	"time"
)

// filenameRe matches "<RFC3339 seconds timestamp>_<id>.json". The id capture
// is greedy so ids containing underscores survive the round trip.
var filenameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[+-]\d{2}:\d{2})_(.+)\.json$`)

// FilenameTimeLayout is RFC3339 truncated to seconds with a numeric offset
// (never "Z"), matching the archived event filename convention.
const FilenameTimeLayout = "2006-01-02T15:04:05-07:00"

// Metadata identifies a distinct trigger scenario.
type Metadata struct {
	// ID uniquely identifies the trigger scenario this event belongs to.
	ID string `json:"id"`

	// Timestamp is the time of the first trigger.
	Timestamp time.Time `json:"timestamp"`
}

// Filename returns the storage filename for this event's metadata.
func (m Metadata) Filename() string {
	return fmt.Sprintf("%s_%s.json", m.Timestamp.Format(FilenameTimeLayout), m.ID)
}

// Equal reports whether two metadata values identify the same event.
func (m Metadata) Equal(other Metadata) bool {
	return m.ID == other.ID && m.Timestamp.Equal(other.Timestamp)
}

// MetadataFromFilename recovers metadata from an archived event filename.
func MetadataFromFilename(filename string) (Metadata, error) {
	matches := filenameRe.FindStringSubmatch(filename)
	if matches == nil {
		return Metadata{}, fmt.Errorf("event filename %q does not match expected format", filename)
	}

	timestamp, err := time.Parse(time.RFC3339, matches[1])
	if err != nil {
		return Metadata{}, fmt.Errorf("parsing timestamp from event filename %q: %w", filename, err)
	}

	return Metadata{ID: matches[2], Timestamp: timestamp}, nil
}

// Reason is a timestamped explanation for an event being recorded.
type Reason struct {
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
}

// CameraSegments is the ordered list of video segments an event references
// from one camera.
type CameraSegments struct {
	Name        string   `json:"name"`
	SegmentList []string `json:"segment_list"`
}

// Event is the aggregated state for all triggers sharing an id.
type Event struct {
	Metadata Metadata `json:"metadata"`

	Reasons []Reason `json:"reasons"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Cameras []CameraSegments `json:"cameras"`
}

// New builds an event from the first trigger for its id.
func New(t Trigger) Event {
	cameras := make([]CameraSegments, 0, len(t.Cameras))
	for _, name := range t.Cameras {
		cameras = append(cameras, CameraSegments{Name: name, SegmentList: []string{}})
	}

	return Event{
		Metadata: t.Metadata,
		Reasons: []Reason{{
			Timestamp: t.Metadata.Timestamp,
			Reason:    t.Reason,
		}},
		Start:   t.StartTime(),
		End:     t.EndTime(),
		Cameras: cameras,
	}
}

// Merge folds a subsequent trigger with the same id into the event: the
// reason is appended, the window only ever grows, and new cameras are added
// with empty segment lists.
func (e *Event) Merge(t Trigger) {
	e.Reasons = append(e.Reasons, Reason{
		Timestamp: t.Metadata.Timestamp,
		Reason:    t.Reason,
	})

	if start := t.StartTime(); start.Before(e.Start) {
		e.Start = start
	}
	if end := t.EndTime(); end.After(e.End) {
		e.End = end
	}

	for _, name := range t.Cameras {
		if e.Camera(name) == nil {
			e.Cameras = append(e.Cameras, CameraSegments{Name: name, SegmentList: []string{}})
		}
	}
}

// Camera returns the camera entry with the given name, or nil.
func (e *Event) Camera(name string) *CameraSegments {
	for i := range e.Cameras {
		if e.Cameras[i].Name == name {
			return &e.Cameras[i]
		}
	}
	return nil
}

// ShouldExpire reports whether the event has outlived its TTL at the given
// instant.
func (e *Event) ShouldExpire(ttl time.Duration, now time.Time) bool {
	return e.End.Add(ttl).Before(now)
}

// Clone returns a deep copy of the event, safe to hand to another goroutine.
func (e *Event) Clone() Event {
	clone := *e

	clone.Reasons = make([]Reason, len(e.Reasons))
	copy(clone.Reasons, e.Reasons)

	clone.Cameras = make([]CameraSegments, len(e.Cameras))
	for i, c := range e.Cameras {
		segments := make([]string, len(c.SegmentList))
		copy(segments, c.SegmentList)
		clone.Cameras[i] = CameraSegments{Name: c.Name, SegmentList: segments}
	}

	return clone
}
