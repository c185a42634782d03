package queue

import (
	"context"
	"time"

	"github.com/chatcart/session-api/internal/domain/chat"
)

// Task is one message awaiting its best-effort backing store copy.
type Task struct {
	SessionID string
	Message   chat.MessageRecord
	QueuedAt  time.Time
}

// TaskQueue feeds the persistence workers.
type TaskQueue interface {
	// Enqueue adds a task without blocking; a full queue drops the task.
	Enqueue(task *Task) bool

	// Dequeue blocks for the next task, ctx cancellation, or queue close.
	Dequeue(ctx context.Context) (*Task, error)

	// Depth returns the number of queued tasks.
	Depth() int

	// Close stops accepting tasks; Dequeue serves the remainder before
	// reporting closed.
	Close()
}
