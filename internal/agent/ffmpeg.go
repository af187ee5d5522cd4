package agent

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// PlaylistFilename is the live playlist ffmpeg maintains in the video
// directory.
const PlaylistFilename = "stream.m3u8"

// segmentFilenamePattern is the strftime pattern for segment filenames. It
// matches the layout the rest of the system parses segment start times from.
const segmentFilenamePattern = "%Y-%m-%dT%H_%M_%S%z.ts"

// FFmpegArgs builds the ffmpeg command line that restreams the camera into
// an HLS playlist of timestamped segments.
func FFmpegArgs(cfg Config) []string {
	args := []string{"-y"}
	args = append(args, cfg.Stream.FFmpegInputArgs...)
	args = append(args,
		"-i", cfg.Stream.URL,
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "hls",
		"-hls_time", strconv.Itoa(cfg.Stream.HLSSegmentTime),
		"-hls_list_size", strconv.Itoa(cfg.Stream.HLSRetainedSegmentCount),
		"-hls_flags", "append_list+delete_segments",
		"-hls_segment_filename", filepath.Join(cfg.VideoDirectory, segmentFilenamePattern),
		"-strftime", "1",
		filepath.Join(cfg.VideoDirectory, PlaylistFilename),
	)
	return args
}

// FFmpegSupervisor keeps an ffmpeg process running, restarting it after the
// configured delay whenever it exits.
type FFmpegSupervisor struct {
	cfg    Config
	logger *slog.Logger
}

// NewFFmpegSupervisor builds a supervisor for the configured stream.
func NewFFmpegSupervisor(cfg Config, logger *slog.Logger) *FFmpegSupervisor {
	return &FFmpegSupervisor{cfg: cfg, logger: logger}
}

// Run supervises ffmpeg until the context is cancelled. The running process
// is asked to stop with SIGINT so it finalises the playlist cleanly.
func (s *FFmpegSupervisor) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.VideoDirectory, 0o755); err != nil {
		return err
	}

	for {
		if err := s.runOnce(ctx); err != nil {
			s.logger.Warn("ffmpeg exited", "error", err)
		} else {
			s.logger.Warn("ffmpeg exited")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.FFmpegRestartDelay):
		}

		s.logger.Info("Restarting ffmpeg")
	}
}

func (s *FFmpegSupervisor) runOnce(ctx context.Context) error {
	args := FFmpegArgs(s.cfg)
	s.logger.Info("Starting ffmpeg", "args", args)

	cmd := exec.Command("ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err

	case <-ctx.Done():
		s.logger.Info("Stopping ffmpeg")
		if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
			_ = cmd.Process.Kill()
		}
		return <-done
	}
}
