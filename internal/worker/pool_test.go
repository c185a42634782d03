package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatcart/session-api/internal/domain/chat"
	"github.com/chatcart/session-api/internal/domain/session"
	"github.com/chatcart/session-api/internal/infrastructure/queue"
)

type countingBacking struct {
	mu        sync.Mutex
	persisted []chat.MessageRecord
}

func (b *countingBacking) UpsertSession(ctx context.Context, upsert session.SessionUpsert) error {
	return nil
}

func (b *countingBacking) PersistMessages(ctx context.Context, sessionID string, messages []chat.MessageRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.persisted = append(b.persisted, messages...)
	return nil
}

func (b *countingBacking) ArchiveMessages(ctx context.Context, sessionID string, messages []chat.MessageRecord) error {
	return nil
}

func (b *countingBacking) UpsertCustomerProfile(ctx context.Context, upsert session.ProfileUpsert) error {
	return nil
}

func (b *countingBacking) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.persisted)
}

func TestPoolStopDrainsQueuedCopies(t *testing.T) {
	q := queue.NewMemoryQueue(16, zerolog.Nop())
	backing := &countingBacking{}

	for i := 0; i < 5; i++ {
		require.True(t, q.Enqueue(&queue.Task{
			SessionID: "sess-1",
			Message:   chat.NewMessage(chat.RoleUser, fmt.Sprintf("turn %d", i)),
		}))
	}

	pool := NewPool(q, backing, Config{WorkerCount: 2, TaskTimeout: time.Second}, zerolog.Nop())
	pool.Start(context.Background())
	pool.Stop()

	assert.Equal(t, 5, backing.count(), "copies accepted before shutdown must reach the backing store")
	assert.Equal(t, 0, pool.QueueDepth())
}

func TestPoolStopWithEmptyQueue(t *testing.T) {
	q := queue.NewMemoryQueue(4, zerolog.Nop())
	pool := NewPool(q, &countingBacking{}, Config{WorkerCount: 2, TaskTimeout: time.Second}, zerolog.Nop())

	pool.Start(context.Background())

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop with an empty queue")
	}
}

func TestWorkerExitsOnContextCancel(t *testing.T) {
	q := queue.NewMemoryQueue(4, zerolog.Nop())
	w := NewWorker(1, q, &countingBacking{}, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit on context cancellation")
	}
}
