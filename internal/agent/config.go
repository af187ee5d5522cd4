// Package agent implements the camera agent: it keeps an ffmpeg process
// restreaming the camera into an HLS playlist on local disk, and serves that
// playlist with time-window filtering.
package agent

import (
	"time"

	"github.com/satori-nvr/satori/internal/observability"
)

// Config is the agent configuration file.
type Config struct {
	// VideoDirectory is where ffmpeg writes the playlist and segments.
	VideoDirectory string `mapstructure:"video_directory"`

	// HTTPServerAddress is the listen address for the HLS endpoints.
	HTTPServerAddress string `mapstructure:"http_server_address"`

	Stream StreamConfig `mapstructure:"stream"`

	// FFmpegRestartDelay is how long to wait before restarting ffmpeg
	// after it exits.
	FFmpegRestartDelay time.Duration `mapstructure:"ffmpeg_restart_delay"`

	Logging observability.LoggingConfig `mapstructure:"logging"`
}

// StreamConfig describes the camera stream and how to segment it.
type StreamConfig struct {
	// URL is the camera stream, typically rtsp.
	URL string `mapstructure:"url"`

	// FFmpegInputArgs are extra ffmpeg arguments placed before the input,
	// e.g. transport selection.
	FFmpegInputArgs []string `mapstructure:"ffmpeg_input_args"`

	// HLSSegmentTime is the target duration of each segment in seconds.
	HLSSegmentTime int `mapstructure:"hls_segment_time"`

	// HLSRetainedSegmentCount is how many segments the live playlist
	// retains before the oldest is deleted.
	HLSRetainedSegmentCount int `mapstructure:"hls_retained_segment_count"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Stream.HLSSegmentTime <= 0 {
		c.Stream.HLSSegmentTime = 6
	}
	if c.Stream.HLSRetainedSegmentCount <= 0 {
		c.Stream.HLSRetainedSegmentCount = 600
	}
	if c.FFmpegRestartDelay <= 0 {
		c.FFmpegRestartDelay = 5 * time.Second
	}
}
