package archiver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satori-nvr/satori/internal/archive"
	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/observability"
	"github.com/satori-nvr/satori/internal/storage"
)

func testServer(t *testing.T) (*Server, *storage.Provider) {
	t.Helper()
	provider := storage.NewProviderWithBackend(storage.NewMemoryBackend(), nil, nil)
	logger := observability.NewLogger(observability.LoggingConfig{Level: "error"})
	return NewServer(Config{}, provider, logger), provider
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleEventUpload(t *testing.T) {
	server, provider := testServer(t)

	timestamp, err := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	require.NoError(t, err)
	e := event.Event{
		Metadata: event.Metadata{ID: "test-1", Timestamp: timestamp},
		Start:    timestamp,
		End:      timestamp.Add(time.Minute),
	}

	recorder := postJSON(t, server.Router(), "/event", e)
	assert.Equal(t, http.StatusOK, recorder.Code)

	stored, err := provider.GetEvent(context.Background(), e.Metadata.Filename())
	require.NoError(t, err)
	assert.True(t, stored.Metadata.Equal(e.Metadata))
}

func TestHandleEventUploadMalformed(t *testing.T) {
	server, _ := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/event", bytes.NewReader([]byte("not json")))
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleSegmentUpload(t *testing.T) {
	server, provider := testServer(t)

	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hls/2023-01-01T12_00_00+0000.ts", r.URL.Path)
		_, _ = w.Write([]byte("mpegts bytes"))
	}))
	defer camera.Close()

	recorder := postJSON(t, server.Router(), "/video/front", archive.SegmentCommand{
		SegmentURL: camera.URL + "/hls/2023-01-01T12_00_00+0000.ts",
	})
	assert.Equal(t, http.StatusOK, recorder.Code)

	data, err := provider.GetSegment(context.Background(), "front", "2023-01-01T12_00_00+0000.ts")
	require.NoError(t, err)
	assert.Equal(t, []byte("mpegts bytes"), data)
}

func TestHandleSegmentUploadBadURL(t *testing.T) {
	server, _ := testServer(t)

	recorder := postJSON(t, server.Router(), "/video/front", archive.SegmentCommand{
		SegmentURL: "http://camera:8000/",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleSegmentUploadFetchFailure(t *testing.T) {
	server, _ := testServer(t)

	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer camera.Close()

	recorder := postJSON(t, server.Router(), "/video/front", archive.SegmentCommand{
		SegmentURL: camera.URL + "/hls/missing.ts",
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestSegmentFilename(t *testing.T) {
	name, err := segmentFilename("http://camera:8000/hls/2023-01-01T12_00_00+0000.ts")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01T12_00_00+0000.ts", name)

	_, err = segmentFilename("http://camera:8000/")
	assert.Error(t, err)

	_, err = segmentFilename("http://camera:8000")
	assert.Error(t, err)
}

func TestArchiveTaskAgainstServer(t *testing.T) {
	server, provider := testServer(t)
	api := httptest.NewServer(server.Router())
	defer api.Close()

	timestamp, err := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	require.NoError(t, err)
	e := event.Event{Metadata: event.Metadata{ID: "test-1", Timestamp: timestamp}}

	tasks := archive.NewEventTasks([]string{api.URL}, e, time.Now())
	require.NoError(t, tasks[0].Execute(context.Background(), api.Client()))

	names, err := provider.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 1)
}
