package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/storage"
)

func segmentTestProvider(t *testing.T) *storage.Provider {
	t.Helper()
	provider := storage.NewProviderWithBackend(storage.NewMemoryBackend(), nil, nil)
	ctx := context.Background()

	for _, camera := range []string{"camera1", "camera2", "camera3"} {
		for _, segment := range []string{"a.ts", "b.ts", "c.ts"} {
			require.NoError(t, provider.PutSegment(ctx, camera, segment, nil))
		}
	}

	return provider
}

func TestPruneSegmentsNoop(t *testing.T) {
	provider := segmentTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.PutEvent(ctx, eventAt(t, "test-1", "2023-03-01T12:00:00Z",
		event.CameraSegments{Name: "camera1", SegmentList: []string{"a.ts", "b.ts", "c.ts"}},
		event.CameraSegments{Name: "camera3", SegmentList: []string{"a.ts", "b.ts", "c.ts"}},
	)))
	require.NoError(t, provider.PutEvent(ctx, eventAt(t, "test-2", "2023-03-01T12:10:00Z",
		event.CameraSegments{Name: "camera2", SegmentList: []string{"a.ts", "b.ts", "c.ts"}},
	)))

	report, err := CalculateUnreferencedSegments(ctx, provider, 2)
	require.NoError(t, err)
	require.NoError(t, DeleteUnreferencedSegments(ctx, provider, report, 2))

	cameras, err := provider.ListCameras(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"camera1", "camera2", "camera3"}, cameras)

	for _, camera := range cameras {
		segments, err := provider.ListSegments(ctx, camera)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.ts", "b.ts", "c.ts"}, segments)
	}
}

func TestPruneSegmentsRemovesUnreferenced(t *testing.T) {
	provider := segmentTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.PutEvent(ctx, eventAt(t, "test-1", "2023-03-01T12:00:00Z",
		event.CameraSegments{Name: "camera1", SegmentList: []string{"a.ts", "b.ts", "c.ts"}},
	)))
	require.NoError(t, provider.PutEvent(ctx, eventAt(t, "test-2", "2023-03-01T12:10:00Z",
		event.CameraSegments{Name: "camera2", SegmentList: []string{"b.ts", "c.ts"}},
	)))

	report, err := CalculateUnreferencedSegments(ctx, provider, 2)
	require.NoError(t, err)

	assert.Empty(t, report["camera1"])
	assert.Equal(t, []string{"a.ts"}, report["camera2"])
	assert.Equal(t, []string{"a.ts", "b.ts", "c.ts"}, report["camera3"])

	require.NoError(t, DeleteUnreferencedSegments(ctx, provider, report, 2))

	// camera3 had no referenced segments at all, so it disappears.
	cameras, err := provider.ListCameras(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"camera1", "camera2"}, cameras)

	segments, err := provider.ListSegments(ctx, "camera1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "b.ts", "c.ts"}, segments)

	segments, err = provider.ListSegments(ctx, "camera2")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts", "c.ts"}, segments)
}

func TestCalculateUnreferencedSegmentsAbortsOnUnreadableEvent(t *testing.T) {
	backend := storage.NewMemoryBackend()
	provider := storage.NewProviderWithBackend(backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, provider.PutSegment(ctx, "camera1", "a.ts", nil))
	require.NoError(t, backend.Put(ctx, "events/2023-03-01T12:00:00+00:00_bad.json", []byte("not json")))

	_, err := CalculateUnreferencedSegments(ctx, provider, 2)
	assert.ErrorIs(t, err, ErrPartial)

	// Nothing was deleted.
	segments, err := provider.ListSegments(ctx, "camera1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts"}, segments)
}

func TestDeleteUnreferencedSegmentsPartialFailure(t *testing.T) {
	provider := storage.NewProviderWithBackend(storage.NewMemoryBackend(), nil, nil)
	ctx := context.Background()

	require.NoError(t, provider.PutSegment(ctx, "camera1", "a.ts", nil))

	report := UnreferencedSegments{
		"camera1": {"a.ts", "missing.ts"},
	}

	err := DeleteUnreferencedSegments(ctx, provider, report, 2)
	assert.ErrorIs(t, err, ErrPartial)

	segments, err := provider.ListSegments(ctx, "camera1")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestUnreferencedSegmentsReportRoundTrip(t *testing.T) {
	report := UnreferencedSegments{
		"camera1": {"a.ts", "b.ts"},
		"camera2": {},
	}

	path := filepath.Join(t.TempDir(), "report.toml")
	require.NoError(t, report.Save(path))

	loaded, err := LoadUnreferencedSegments(path)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)
}

func TestLoadUnreferencedSegmentsMissingFile(t *testing.T) {
	_, err := LoadUnreferencedSegments(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
