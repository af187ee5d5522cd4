package archive

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/satori-nvr/satori/internal/storage"
)

// retryQueueKey is where the queue is persisted in the state store.
const retryQueueKey = "archive_retry_queue.json"

// RetryQueue holds archive tasks that failed, persisted across restarts.
// Tasks are resubmitted periodically until they succeed or outlive the TTL.
type RetryQueue struct {
	store   storage.Backend
	taskTTL time.Duration

	queue []Task
}

// NewRetryQueue loads the persisted queue from the state store. A missing or
// corrupt state file yields an empty queue.
func NewRetryQueue(ctx context.Context, store storage.Backend, taskTTL time.Duration) *RetryQueue {
	q := &RetryQueue{
		store:   store,
		taskTTL: taskTTL,
	}

	data, err := store.Get(ctx, retryQueueKey)
	if err == nil {
		err = json.Unmarshal(data, &q.queue)
	}
	if err != nil {
		slog.Warn("Failed to load archive retry queue from store", "error", err)
		q.queue = nil
	} else {
		slog.Info("Loaded queue from store", "entries", len(q.queue))
	}

	return q
}

// Len returns the number of queued tasks.
func (q *RetryQueue) Len() int {
	return len(q.queue)
}

// Save persists the queue to the state store. Failures are logged, not
// returned: losing the retry queue is survivable, crashing the processor is
// not.
func (q *RetryQueue) Save(ctx context.Context) {
	data, err := json.Marshal(q.queue)
	if err == nil {
		err = q.store.Put(ctx, retryQueueKey, data)
	}
	if err != nil {
		slog.Warn("Failed to save archive retry queue to store", "error", err)
		return
	}
	slog.Info("Saved queue to store")
}

// Push adds a failed task to the queue. An event task supersedes any queued
// event task describing the same event: only the most recent description is
// worth archiving. The incoming task is discarded instead when the queued
// one is newer. Segment tasks are never coalesced.
func (q *RetryQueue) Push(task Task) {
	if task.Op.Event == nil {
		slog.Debug("Pushing task to the queue", "api_url", task.APIURL)
		q.queue = append(q.queue, task)
		return
	}

	for i, existing := range q.queue {
		if existing.Op.Event == nil || !existing.Op.Event.Metadata.Equal(task.Op.Event.Metadata) {
			continue
		}

		if existing.Birth.After(task.Birth) {
			slog.Warn("Discarding task as it appears to be an older description than one already in the queue",
				"event", task.Op.Event.Metadata.Filename())
			return
		}

		slog.Debug("Pushing task to queue, replacing older task",
			"event", task.Op.Event.Metadata.Filename())
		q.queue = append(q.queue[:i], q.queue[i+1:]...)
		q.queue = append(q.queue, task)
		return
	}

	slog.Debug("Pushing task to the queue", "api_url", task.APIURL)
	q.queue = append(q.queue, task)
}

// Process expires tasks older than the TTL and resubmits the remainder on
// the task channel, leaving the queue empty. The queue is persisted before
// and after.
func (q *RetryQueue) Process(ctx context.Context, tasks chan<- Task) error {
	q.Save(ctx)

	q.pruneOldTasks(time.Now())

	for len(q.queue) > 0 {
		task := q.queue[len(q.queue)-1]
		q.queue = q.queue[:len(q.queue)-1]

		select {
		case tasks <- task:
		case <-ctx.Done():
			// Put it back so it is not lost on shutdown.
			q.queue = append(q.queue, task)
			q.Save(ctx)
			return ctx.Err()
		}
	}

	q.Save(ctx)
	return nil
}

func (q *RetryQueue) pruneOldTasks(now time.Time) {
	deadline := now.Add(-q.taskTTL)

	kept := q.queue[:0]
	for _, task := range q.queue {
		if task.Birth.Before(deadline) {
			slog.Info("Discarding task", "api_url", task.APIURL, "birth", task.Birth)
			continue
		}
		kept = append(kept, task)
	}
	q.queue = kept
}
