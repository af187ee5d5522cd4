package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"

	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/storage"
)

// UnreferencedSegments maps camera names to segments that no archived event
// references. It is written to disk between the calculate and delete phases
// so the operator can review what is about to be removed.
type UnreferencedSegments map[string][]string

// Save writes the report as TOML.
func (u UnreferencedSegments) Save(path string) error {
	data, err := toml.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// LoadUnreferencedSegments reads a report written by Save.
func LoadUnreferencedSegments(path string) (UnreferencedSegments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	var u UnreferencedSegments
	if err := toml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return u, nil
}

// referencedSegments accumulates the set of segments referenced by events,
// keyed by camera name.
type referencedSegments struct {
	mu    sync.Mutex
	inner map[string]map[string]struct{}
}

func (r *referencedSegments) addFromEvent(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, camera := range e.Cameras {
		set, ok := r.inner[camera.Name]
		if !ok {
			set = make(map[string]struct{})
			r.inner[camera.Name] = set
		}
		for _, segment := range camera.SegmentList {
			set[segment] = struct{}{}
		}
	}
}

// CalculateUnreferencedSegments builds the report of segments present in the
// archive but not referenced by any event. Event retrieval is fanned out
// over numWorkers workers; any retrieval failure aborts with ErrPartial,
// since an incomplete reference set would mark live segments for deletion.
func CalculateUnreferencedSegments(ctx context.Context, provider *storage.Provider, numWorkers int) (UnreferencedSegments, error) {
	slog.Info("Getting camera list")
	cameras, err := provider.ListCameras(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Getting segment list(s)")
	stored := make(map[string][]string, len(cameras))
	for _, camera := range cameras {
		slog.Info("Getting segment list for camera", "camera", camera)
		if stored[camera], err = provider.ListSegments(ctx, camera); err != nil {
			return nil, err
		}
	}

	slog.Info("Getting event list")
	filenames, err := provider.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Calculating referenced segments", "events", len(filenames))
	referenced := &referencedSegments{inner: make(map[string]map[string]struct{})}

	tasks := make(chan string)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tasks)
		for _, filename := range filenames {
			select {
			case tasks <- filename:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numWorkers; i++ {
		worker := i
		g.Go(func() error {
			for filename := range tasks {
				slog.Info("Processing event", "worker", worker, "filename", filename)

				e, err := provider.GetEvent(gctx, filename)
				if err != nil {
					slog.Warn("Failed to retrieve event", "filename", filename, "error", err)
					return ErrPartial
				}
				referenced.addFromEvent(e)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, ErrPartial
	}

	report := make(UnreferencedSegments, len(cameras))
	for _, camera := range cameras {
		slog.Info("Calculating unreferenced segments for camera", "camera", camera)

		set := referenced.inner[camera]
		unreferenced := []string{}
		for _, segment := range stored[camera] {
			if _, ok := set[segment]; !ok {
				unreferenced = append(unreferenced, segment)
			}
		}
		report[camera] = unreferenced
	}

	return report, nil
}

// DeleteUnreferencedSegments removes every segment named in the report,
// fanning deletions out over numWorkers workers per camera. Individual
// failures are logged and the run continues; any failure makes the whole
// run report ErrPartial.
func DeleteUnreferencedSegments(ctx context.Context, provider *storage.Provider, report UnreferencedSegments, numWorkers int) error {
	var failed atomic.Bool

	for camera, segments := range report {
		slog.Info("Pruning segments", "camera", camera)

		tasks := make(chan string)
		g, _ := errgroup.WithContext(ctx)

		g.Go(func() error {
			defer close(tasks)
			for _, segment := range segments {
				tasks <- segment
			}
			return nil
		})

		for i := 0; i < numWorkers; i++ {
			worker := i
			g.Go(func() error {
				for segment := range tasks {
					slog.Info("Deleting segment", "worker", worker, "camera", camera, "segment", segment)

					if err := provider.DeleteSegment(ctx, camera, segment); err != nil {
						slog.Warn("Failed to delete segment", "segment", segment, "error", err)
						failed.Store(true)
					}
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			failed.Store(true)
		}
	}

	if failed.Load() {
		return ErrPartial
	}
	return nil
}
