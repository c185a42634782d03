package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/domain/session"
	"github.com/chatcart/session-api/internal/infrastructure/queue"
)

// Pool manages the background persistence workers.
type Pool struct {
	workers     []*Worker
	queue       queue.TaskQueue
	backing     session.BackingStore
	workerCount int
	taskTimeout time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
}

// Config contains worker pool configuration.
type Config struct {
	WorkerCount int
	TaskTimeout time.Duration
}

// NewPool creates a new worker pool.
func NewPool(taskQueue queue.TaskQueue, backing session.BackingStore, cfg Config, log zerolog.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 5 * time.Second
	}
	return &Pool{
		queue:       taskQueue,
		backing:     backing,
		workerCount: cfg.WorkerCount,
		taskTimeout: cfg.TaskTimeout,
		log:         log.With().Str("component", "persist-pool").Logger(),
	}
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("worker_count", p.workerCount).Msg("starting persistence workers")

	p.workers = make([]*Worker, p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		w := NewWorker(i+1, p.queue, p.backing, p.taskTimeout, p.log)
		p.workers[i] = w

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(w)
	}
}

// Stop closes the queue and waits up to 30s for the workers to drain the
// remainder into the backing store and exit.
func (p *Pool) Stop() {
	p.log.Info().Int("queue_depth", p.queue.Depth()).Msg("stopping persistence workers")

	p.queue.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all persistence workers stopped")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("persistence worker shutdown timed out")
	}
}

// QueueDepth returns the current persist queue depth.
func (p *Pool) QueueDepth() int {
	return p.queue.Depth()
}
