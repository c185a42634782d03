package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/domain/chat"
	"github.com/chatcart/session-api/internal/domain/session"
	"github.com/chatcart/session-api/internal/infrastructure/metrics"
	"github.com/chatcart/session-api/internal/infrastructure/queue"
)

// Worker drains the persist queue, copying appended messages to the
// backing store. Failures are logged and counted, never retried: the
// authoritative log is the per-actor store.
type Worker struct {
	id      int
	queue   queue.TaskQueue
	backing session.BackingStore
	timeout time.Duration
	log     zerolog.Logger
}

// NewWorker creates a single persistence worker.
func NewWorker(id int, taskQueue queue.TaskQueue, backing session.BackingStore, timeout time.Duration, log zerolog.Logger) *Worker {
	return &Worker{
		id:      id,
		queue:   taskQueue,
		backing: backing,
		timeout: timeout,
		log:     log.With().Int("worker_id", id).Logger(),
	}
}

// Start runs the worker loop until the queue is closed and drained, or
// the context is cancelled. Closing the queue is the graceful signal:
// Dequeue keeps serving the remainder before it reports closed, so every
// copy accepted before Close still reaches the backing store.
func (w *Worker) Start(ctx context.Context) {
	w.log.Debug().Msg("persistence worker started")

	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || errors.Is(err, context.Canceled) {
				return
			}
			w.log.Warn().Err(err).Msg("dequeue failed")
			continue
		}

		w.process(task)
	}
}

func (w *Worker) process(task *queue.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.backing.PersistMessages(ctx, task.SessionID, []chat.MessageRecord{task.Message})
	if err != nil {
		metrics.RecordBackingFailure("persist_message")
		w.log.Warn().Err(err).Str("session_id", task.SessionID).Msg("message copy to backing store failed")
		return
	}
	metrics.RecordMessagePersisted()
}
