package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/satori-nvr/satori/internal/hls"
	"github.com/satori-nvr/satori/internal/observability"
)

const playlistContentType = "application/vnd.apple.mpegurl"

// Server serves the agent's HLS playlist and segments, and supervises the
// ffmpeg process producing them.
type Server struct {
	cfg        Config
	logger     *slog.Logger
	supervisor *FFmpegSupervisor
	httpServer *http.Server
}

// NewServer builds the agent from its configuration.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	cfg.ApplyDefaults()
	logger = observability.WithComponent(logger, "agent")

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		supervisor: NewFFmpegSupervisor(cfg, logger),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPServerAddress,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Router builds the HTTP routes. Exposed for tests.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)

	router.Get("/hls", s.handlePlaylist)
	router.Handle("/hls/*", http.StripPrefix("/hls/", noDirListing(http.FileServer(http.Dir(s.cfg.VideoDirectory)))))

	return router
}

// noDirListing rejects directory requests so the file server only ever
// serves segment files.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run operates the agent until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.supervisor.Run(ctx) })
	g.Go(func() error { return s.runHTTPServer(ctx) })

	return g.Wait()
}

func (s *Server) runHTTPServer(ctx context.Context) error {
	errs := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// handlePlaylist serves the live playlist filtered to the requested window.
// since and until take RFC3339 timestamps; last takes a duration and is
// shorthand for since of that long ago. A segment is kept if any part of it
// lies inside the window.
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	since, until, err := playlistWindow(r, time.Now())
	if err != nil {
		s.logger.Warn("Bad playlist request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.cfg.VideoDirectory, PlaylistFilename))
	if err != nil {
		s.logger.Warn("Failed to read playlist", "error", err)
		http.Error(w, "playlist not available", http.StatusServiceUnavailable)
		return
	}

	media, err := hls.ParseMediaPlaylist(data)
	if err != nil {
		s.logger.Error("Failed to parse playlist", "error", err)
		http.Error(w, "playlist not available", http.StatusInternalServerError)
		return
	}

	if err := hls.FilterMediaPlaylist(media, since, until); err != nil {
		s.logger.Error("Failed to filter playlist", "error", err)
		http.Error(w, "playlist not available", http.StatusInternalServerError)
		return
	}
	hls.PrefixSegmentURIs(media, "hls/")

	out, err := media.Marshal()
	if err != nil {
		s.logger.Error("Failed to render playlist", "error", err)
		http.Error(w, "playlist not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", playlistContentType)
	_, _ = w.Write(out)
}

func playlistWindow(r *http.Request, now time.Time) (since, until time.Time, err error) {
	query := r.URL.Query()

	// The defaults keep every segment.
	since = time.Time{}
	until = now.Add(24 * time.Hour)

	if v := query.Get("since"); v != "" {
		since, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return since, until, fmt.Errorf("invalid since: %w", err)
		}
	}

	if v := query.Get("until"); v != "" {
		until, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return since, until, fmt.Errorf("invalid until: %w", err)
		}
	}

	if v := query.Get("last"); v != "" {
		if query.Get("since") != "" {
			return since, until, fmt.Errorf("last and since are mutually exclusive")
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return since, until, fmt.Errorf("invalid last: %w", err)
		}
		since = now.Add(-d)
	}

	return since, until, nil
}
