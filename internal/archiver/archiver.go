// Package archiver implements the storage API service: a small HTTP server
// that accepts events and segment references from event processors and
// writes them to the archive.
package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/satori-nvr/satori/internal/archive"
	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/observability"
	"github.com/satori-nvr/satori/internal/storage"
)

// Config is the archiver configuration file.
type Config struct {
	// HTTPServerAddress is the listen address for the storage API.
	HTTPServerAddress string `mapstructure:"http_server_address"`

	Storage storage.Config `mapstructure:"storage"`

	Logging observability.LoggingConfig `mapstructure:"logging"`
}

// Server is the storage API server.
type Server struct {
	provider   *storage.Provider
	httpClient *http.Client
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer builds the storage API server around a storage provider.
func NewServer(cfg Config, provider *storage.Provider, logger *slog.Logger) *Server {
	s := &Server{
		provider: provider,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: observability.WithComponent(logger, "archiver"),
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

	router.Post("/event", s.handleEventUpload)
	router.Post("/video/{camera}", s.handleSegmentUpload)

	return router
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
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

func (s *Server) handleEventUpload(w http.ResponseWriter, r *http.Request) {
	var e event.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.logger.Warn("Malformed event upload", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.logger.Info("Saving event", "filename", e.Metadata.Filename())

	if err := s.provider.PutEvent(r.Context(), e); err != nil {
		s.logger.Warn("Failed to store event", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSegmentUpload(w http.ResponseWriter, r *http.Request) {
	camera := chi.URLParam(r, "camera")

	var cmd archive.SegmentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.logger.Warn("Malformed segment upload", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	filename, err := segmentFilename(cmd.SegmentURL)
	if err != nil {
		s.logger.Warn("Malformed segment URL", "url", cmd.SegmentURL, "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.logger.Info("Saving segment", "camera", camera, "filename", filename)

	data, err := s.fetchSegment(r.Context(), cmd.SegmentURL)
	if err != nil {
		s.logger.Warn("Failed to get segment for archive storage", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := s.provider.PutSegment(r.Context(), camera, filename, data); err != nil {
		s.logger.Warn("Failed to store segment in archive", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// segmentFilename derives the archive filename from the last path component
// of the segment URL.
func segmentFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("segment URL %q has no usable filename", rawURL)
	}

	return name, nil
}

func (s *Server) fetchSegment(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
