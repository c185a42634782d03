package queue

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatcart/session-api/internal/domain/chat"
)

func TestMemoryQueueEnqueueDequeue(t *testing.T) {
	q := NewMemoryQueue(4, zerolog.Nop())

	ok := q.Enqueue(&Task{SessionID: "sess-1", Message: chat.NewMessage(chat.RoleUser, "hi")})
	require.True(t, ok)
	assert.Equal(t, 1, q.Depth())

	task, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", task.SessionID)
	assert.Equal(t, "hi", task.Message.Content)
	assert.Equal(t, 0, q.Depth())
}

func TestMemoryQueueDropsWhenFull(t *testing.T) {
	q := NewMemoryQueue(2, zerolog.Nop())

	require.True(t, q.Enqueue(&Task{SessionID: "a"}))
	require.True(t, q.Enqueue(&Task{SessionID: "b"}))
	assert.False(t, q.Enqueue(&Task{SessionID: "c"}), "a full queue drops instead of blocking")
	assert.Equal(t, 2, q.Depth())
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	q := NewMemoryQueue(2, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueueCloseDrainsRemainder(t *testing.T) {
	q := NewMemoryQueue(4, zerolog.Nop())

	require.True(t, q.Enqueue(&Task{SessionID: "a"}))
	require.True(t, q.Enqueue(&Task{SessionID: "b"}))
	q.Close()

	assert.False(t, q.Enqueue(&Task{SessionID: "c"}), "closed queue rejects new tasks")

	task, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", task.SessionID)

	task, err = q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", task.SessionID)

	_, err = q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueuePersistImplementsSink(t *testing.T) {
	q := NewMemoryQueue(4, zerolog.Nop())

	q.Persist("sess-1", chat.NewMessage(chat.RoleAssistant, "on it"))

	task, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", task.SessionID)
	assert.Equal(t, chat.RoleAssistant, task.Message.Role)
	assert.False(t, task.QueuedAt.IsZero())
}
