// Package hls parses and filters the HLS media playlists produced by the
// camera agents. Segment filenames carry their wall-clock start time, which
// is what lets events be mapped back onto recorded video.
package hls

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// SegmentTimeLayout is the time layout embedded in segment filenames, e.g.
// "2023-01-01T12_00_06+0000.ts". Colons are replaced with underscores so the
// name is safe on every filesystem.
const SegmentTimeLayout = "2006-01-02T15_04_05-0700"

// segmentExtension is the container extension ffmpeg writes.
const segmentExtension = ".ts"

// Segment is one entry of a media playlist, with its start time recovered
// from the filename.
type Segment struct {
	// URI is the segment URI exactly as it appears in the playlist.
	URI string

	// Name is the basename of the URI.
	Name string

	Start    time.Time
	Duration time.Duration
}

// End returns the wall-clock time the segment stops at.
func (s Segment) End() time.Time {
	return s.Start.Add(s.Duration)
}

// SegmentName formats a segment filename for the given start time.
func SegmentName(start time.Time) string {
	return start.Format(SegmentTimeLayout) + segmentExtension
}

// ParseSegmentName recovers the start time from a segment filename.
func ParseSegmentName(name string) (time.Time, error) {
	base := path.Base(name)
	stem, ok := strings.CutSuffix(base, segmentExtension)
	if !ok {
		return time.Time{}, fmt.Errorf("segment name %q does not end in %s", name, segmentExtension)
	}

	start, err := time.Parse(SegmentTimeLayout, stem)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time from segment name %q: %w", name, err)
	}

	return start, nil
}
