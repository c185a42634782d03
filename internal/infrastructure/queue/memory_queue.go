package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/domain/chat"
)

// ErrQueueClosed is returned by Dequeue after Close.
var ErrQueueClosed = errors.New("persist queue is closed")

// MemoryQueue is a bounded in-memory task queue. The backing store copy of
// appended messages is best-effort; the authoritative log lives in the
// per-actor store, so dropping under pressure loses nothing the service
// has promised to keep.
type MemoryQueue struct {
	tasks chan *Task
	log   zerolog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryQueue builds a queue holding up to size tasks.
func NewMemoryQueue(size int, log zerolog.Logger) *MemoryQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryQueue{
		tasks:  make(chan *Task, size),
		log:    log.With().Str("component", "persist-queue").Logger(),
		closed: make(chan struct{}),
	}
}

// Enqueue adds the task, dropping it when the queue is full or closed.
func (q *MemoryQueue) Enqueue(task *Task) bool {
	select {
	case <-q.closed:
		return false
	default:
	}

	select {
	case q.tasks <- task:
		return true
	default:
		q.log.Warn().Str("session_id", task.SessionID).Msg("persist queue full, dropping message copy")
		return false
	}
}

// Dequeue blocks for the next task.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-q.closed:
		// Drain what is left before reporting closed.
		select {
		case task := <-q.tasks:
			return task, nil
		default:
			return nil, ErrQueueClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Depth returns the number of queued tasks.
func (q *MemoryQueue) Depth() int {
	return len(q.tasks)
}

// Close stops accepting tasks. Workers drain the remainder.
func (q *MemoryQueue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// Persist implements session.MessageSink, feeding append side effects into
// the queue fire-and-forget.
func (q *MemoryQueue) Persist(sessionID string, msg chat.MessageRecord) {
	q.Enqueue(&Task{
		SessionID: sessionID,
		Message:   msg,
		QueuedAt:  time.Now(),
	})
}
