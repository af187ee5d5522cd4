package processor

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

	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/observability"
)

func testProcessor(t *testing.T) *Processor {
	t.Helper()

	cfg := Config{
		StateStore:           t.TempDir(),
		EventProcessInterval: time.Minute,
		ArchiveRetryInterval: time.Minute,
		ArchiveFailedTaskTTL: time.Hour,
		EventTTL:             time.Hour,
		Triggers: TriggersConfig{
			Fallback: event.TriggerTemplate{
				Cameras: []string{"front"},
				Reason:  "Unknown",
				Pre:     time.Minute,
				Post:    time.Minute,
			},
		},
	}

	logger := observability.NewLogger(observability.LoggingConfig{Level: "error"})
	p, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	return p
}

func TestHandleTrigger(t *testing.T) {
	p := testProcessor(t)

	payload, err := json.Marshal(event.TriggerCommand{ID: "doorbell"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/trigger", bytes.NewReader(payload))
	recorder := httptest.NewRecorder()
	p.Router().ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 1, p.events.Len())
	assert.Equal(t, "doorbell", p.events.events[0].Metadata.ID)
	assert.Equal(t, "Unknown", p.events.events[0].Reasons[0].Reason)

	// The processing loop was nudged.
	select {
	case <-p.notify:
	default:
		t.Fatal("expected processing notification")
	}
}

func TestHandleTriggerMalformed(t *testing.T) {
	p := testProcessor(t)

	req := httptest.NewRequest(http.MethodPost, "/trigger", bytes.NewReader([]byte("not json")))
	recorder := httptest.NewRecorder()
	p.Router().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
