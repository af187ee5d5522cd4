package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/storage"
)

func segmentTask(birth time.Time) Task {
	return Task{
		Birth:  birth,
		APIURL: "http://localhost",
		Op: Operation{Segment: &SegmentUpload{
			CameraName: "noop",
			URL:        "http://localhost",
		}},
	}
}

func eventTask(t *testing.T, id string, eventTime, birth time.Time, reason string) Task {
	t.Helper()
	return Task{
		Birth:  birth,
		APIURL: "http://localhost",
		Op: Operation{Event: &event.Event{
			Metadata: event.Metadata{ID: id, Timestamp: eventTime},
			Reasons:  []event.Reason{{Timestamp: birth, Reason: reason}},
		}},
	}
}

func TestNewRetryQueueEmptyStore(t *testing.T) {
	queue := NewRetryQueue(context.Background(), storage.NewMemoryBackend(), time.Hour)
	assert.Zero(t, queue.Len())
}

func TestNewRetryQueueCorruptState(t *testing.T) {
	store := storage.NewMemoryBackend()
	require.NoError(t, store.Put(context.Background(), retryQueueKey, []byte("not json")))

	queue := NewRetryQueue(context.Background(), store, time.Hour)
	assert.Zero(t, queue.Len())
}

func TestRetryQueuePush(t *testing.T) {
	queue := NewRetryQueue(context.Background(), storage.NewMemoryBackend(), time.Hour)

	queue.Push(segmentTask(time.Now()))
	assert.Equal(t, 1, queue.Len())
}

func TestRetryQueueSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryBackend()

	queue := NewRetryQueue(ctx, store, time.Hour)
	queue.Push(segmentTask(time.Now()))
	queue.Save(ctx)

	loaded := NewRetryQueue(ctx, store, time.Hour)
	assert.Equal(t, 1, loaded.Len())
}

func TestRetryQueuePrune(t *testing.T) {
	queue := NewRetryQueue(context.Background(), storage.NewMemoryBackend(), time.Hour)

	queue.Push(segmentTask(time.Now().Add(-2 * time.Hour)))
	fresh := segmentTask(time.Now().Add(-30 * time.Minute))
	queue.Push(fresh)

	queue.pruneOldTasks(time.Now())

	require.Equal(t, 1, queue.Len())
	assert.True(t, queue.queue[0].Birth.Equal(fresh.Birth))
}

func TestRetryQueueProcessDrainsToChannel(t *testing.T) {
	ctx := context.Background()
	queue := NewRetryQueue(ctx, storage.NewMemoryBackend(), time.Hour)

	task := segmentTask(time.Now())
	queue.Push(task)

	tasks := make(chan Task, 8)
	require.NoError(t, queue.Process(ctx, tasks))

	received := <-tasks
	assert.True(t, received.Birth.Equal(task.Birth))
	assert.Zero(t, queue.Len())
}

func TestRetryQueueNewerEventSupersedesOlder(t *testing.T) {
	queue := NewRetryQueue(context.Background(), storage.NewMemoryBackend(), time.Hour)

	eventTime := time.Now().Add(-10 * time.Second)

	older := eventTask(t, "test", eventTime, time.Now().Add(-5*time.Second), "aaa")
	other := eventTask(t, "not a test", eventTime, time.Now().Add(-5*time.Second), "")
	newer := eventTask(t, "test", eventTime, time.Now(), "bbb")

	queue.Push(older)
	queue.Push(other)
	queue.Push(newer)

	require.Equal(t, 2, queue.Len())
	assert.Equal(t, "not a test", queue.queue[0].Op.Event.Metadata.ID)
	assert.Equal(t, "bbb", queue.queue[1].Op.Event.Reasons[0].Reason)
}

func TestRetryQueueOlderEventDiscardedOutOfOrder(t *testing.T) {
	queue := NewRetryQueue(context.Background(), storage.NewMemoryBackend(), time.Hour)

	eventTime := time.Now().Add(-10 * time.Second)

	older := eventTask(t, "test", eventTime, time.Now().Add(-5*time.Second), "aaa")
	other := eventTask(t, "not a test", eventTime, time.Now().Add(-5*time.Second), "")
	newer := eventTask(t, "test", eventTime, time.Now(), "bbb")

	queue.Push(newer)
	queue.Push(other)
	queue.Push(older)

	require.Equal(t, 2, queue.Len())
	assert.Equal(t, "bbb", queue.queue[0].Op.Event.Reasons[0].Reason)
	assert.Equal(t, "not a test", queue.queue[1].Op.Event.Metadata.ID)
}

func TestRetryQueueSegmentTasksNeverCoalesced(t *testing.T) {
	queue := NewRetryQueue(context.Background(), storage.NewMemoryBackend(), time.Hour)

	queue.Push(segmentTask(time.Now()))
	queue.Push(segmentTask(time.Now()))

	assert.Equal(t, 2, queue.Len())
}
