package hls

import (
	"fmt"
	"path"
	"time"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
)

// ParseMediaPlaylist parses bytes into a media playlist.
func ParseMediaPlaylist(data []byte) (*playlist.Media, error) {
	pl, err := playlist.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parsing playlist: %w", err)
	}

	media, ok := pl.(*playlist.Media)
	if !ok {
		return nil, fmt.Errorf("expected media playlist, got multivariant")
	}

	return media, nil
}

// Segments extracts the segment entries of a media playlist, recovering each
// segment's start time from its filename.
func Segments(media *playlist.Media) ([]Segment, error) {
	segments := make([]Segment, 0, len(media.Segments))
	for _, ms := range media.Segments {
		start, err := ParseSegmentName(ms.URI)
		if err != nil {
			return nil, err
		}

		segments = append(segments, Segment{
			URI:      ms.URI,
			Name:     path.Base(ms.URI),
			Start:    start,
			Duration: ms.Duration,
		})
	}

	return segments, nil
}

// Between returns the segments that overlap the half-open window
// [start, end): a segment is included iff it starts before the window ends
// and ends after the window starts.
func Between(segments []Segment, start, end time.Time) []Segment {
	var result []Segment
	for _, s := range segments {
		if s.Start.Before(end) && start.Before(s.End()) {
			result = append(result, s)
		}
	}
	return result
}

// FilterMediaPlaylist drops in place every segment that lies entirely outside
// the inclusive window [since, until].
func FilterMediaPlaylist(media *playlist.Media, since, until time.Time) error {
	kept := media.Segments[:0]
	for _, ms := range media.Segments {
		start, err := ParseSegmentName(ms.URI)
		if err != nil {
			return err
		}

		end := start.Add(ms.Duration)
		if !end.Before(since) && !start.After(until) {
			kept = append(kept, ms)
		}
	}

	media.Segments = kept
	return nil
}

// PrefixSegmentURIs prepends prefix to every segment URI, so a playlist
// served at one path can reference segments served under another.
func PrefixSegmentURIs(media *playlist.Media, prefix string) {
	for _, ms := range media.Segments {
		ms.URI = prefix + ms.URI
	}
}
