package processor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/satori-nvr/satori/internal/archive"
	"github.com/satori-nvr/satori/internal/observability"
	"github.com/satori-nvr/satori/internal/storage"
)

// Processor is the event processor service: the trigger API, the periodic
// event processing loop, the archive submission workers, and the retry loop
// for failed submissions.
type Processor struct {
	cfg    Config
	logger *slog.Logger

	client *HLSClient

	mu     sync.Mutex
	events *EventSet
	queue  *archive.RetryQueue

	// notify nudges the processing loop after a trigger arrives.
	notify chan struct{}

	httpServer *http.Server
}

// New builds a processor from its configuration, loading persisted state
// from the state store.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Processor, error) {
	cfg.ApplyDefaults()

	client, err := NewHLSClient(cfg.Cameras)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFileBackend(cfg.StateStore)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	p := &Processor{
		cfg:    cfg,
		logger: observability.WithComponent(logger, "processor"),
		client: client,
		events: NewEventSet(ctx, store, cfg.EventTTL),
		queue:  archive.NewRetryQueue(ctx, store, cfg.ArchiveFailedTaskTTL),
		notify: make(chan struct{}, 1),
	}

	p.httpServer = &http.Server{
		Addr:         cfg.HTTPServerAddress,
		Handler:      p.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return p, nil
}

// Run operates the processor until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	tasks := make(chan archive.Task, 64)

	g.Go(func() error { return p.runHTTPServer(ctx) })
	g.Go(func() error { return p.runProcessLoop(ctx, tasks) })
	g.Go(func() error { return p.runRetryLoop(ctx, tasks) })

	for range p.cfg.ArchiveWorkers {
		g.Go(func() error { return p.runSubmissionWorker(ctx, tasks) })
	}

	return g.Wait()
}

func (p *Processor) runHTTPServer(ctx context.Context) error {
	errs := make(chan error, 1)

	go func() {
		p.logger.Info("Starting HTTP server", "address", p.httpServer.Addr)
		if err := p.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	p.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return p.httpServer.Shutdown(shutdownCtx)
}

// runProcessLoop runs a processing pass on the configured interval, and
// immediately after a trigger arrives. Tasks are collected under the event
// set mutex but submitted outside it: a backed-up archive pipeline slows
// submission without wedging trigger intake.
func (p *Processor) runProcessLoop(ctx context.Context, tasks chan<- archive.Task) error {
	ticker := time.NewTicker(p.cfg.EventProcessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.saveState()
			return nil

		case <-ticker.C:
		case <-p.notify:
		}

		p.logger.Debug("Running event processing pass")
		p.mu.Lock()
		pending := p.events.Process(ctx, p.client, p.cfg.StorageAPIURLs)
		p.mu.Unlock()

		p.submit(ctx, tasks, pending)
	}
}

// runRetryLoop periodically resubmits the retry queue's tasks.
func (p *Processor) runRetryLoop(ctx context.Context, tasks chan<- archive.Task) error {
	ticker := time.NewTicker(p.cfg.ArchiveRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			// Drain into a buffer sized to the queue so the mutex is
			// never held across a blocking submission.
			p.mu.Lock()
			pending := make(chan archive.Task, p.queue.Len())
			err := p.queue.Process(ctx, pending)
			p.mu.Unlock()
			close(pending)

			if err != nil {
				p.logger.Warn("Retry queue processing interrupted", "error", err)
			}

			for task := range pending {
				p.submit(ctx, tasks, []archive.Task{task})
			}
		}
	}
}

// submit hands tasks to the worker pool. Tasks undelivered at shutdown go
// back to the retry queue rather than being dropped.
func (p *Processor) submit(ctx context.Context, tasks chan<- archive.Task, pending []archive.Task) {
	for i, task := range pending {
		select {
		case tasks <- task:
		case <-ctx.Done():
			for _, task := range pending[i:] {
				p.pushFailed(ctx, task)
			}
			return
		}
	}
}

// pushFailed records a task for retry.
func (p *Processor) pushFailed(ctx context.Context, task archive.Task) {
	p.mu.Lock()
	p.queue.Push(task)
	p.queue.Save(ctx)
	p.mu.Unlock()
}

func (p *Processor) runSubmissionWorker(ctx context.Context, tasks <-chan archive.Task) error {
	client := &http.Client{Timeout: 30 * time.Second}

	for {
		select {
		case <-ctx.Done():
			return nil

		case task := <-tasks:
			if err := task.Execute(ctx, client); err != nil {
				p.logger.Warn("Archive task failed, queuing for retry", "api_url", task.APIURL, "error", err)
				p.pushFailed(ctx, task)
			}
		}
	}
}

func (p *Processor) saveState() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events.Save(ctx)
	p.queue.Save(ctx)
}
