// Package actor provides the per-key dispatch runtime: every stable key
// (session id, shop domain) maps to at most one live mailbox goroutine, and
// operations for one key execute strictly one at a time in arrival order.
// Different keys run fully in parallel. State lives in durable stores, so a
// mailbox can be evicted and lazily recreated without losing anything.
package actor

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
)

// ErrRuntimeClosed is returned for operations submitted after Shutdown.
var ErrRuntimeClosed = errors.New("actor runtime is closed")

// Factory constructs the actor instance for a key on first use (or after
// eviction). It runs inside the key's mailbox, never concurrently with ops.
type Factory func(ctx context.Context, key string) (any, error)

// Op is one serialized operation against an actor instance.
type Op func(ctx context.Context, instance any) error

type task struct {
	ctx   context.Context
	op    Op
	errCh chan error
}

type mailbox struct {
	key   string
	tasks chan task
	quit  chan struct{} // closed on eviction or shutdown
	done  chan struct{} // closed when the loop has fully drained
}

// Runtime routes keys to mailboxes. The live set is bounded by an LRU; an
// evicted mailbox drains its queued tasks before a successor for the same
// key may start, preserving the at-most-one guarantee across eviction.
type Runtime struct {
	name        string
	factory     Factory
	log         zerolog.Logger
	mailboxSize int

	mu      sync.Mutex
	live    *lru.Cache
	zombies map[string]*mailbox
	closed  bool
	wg      sync.WaitGroup
}

// Config bounds the runtime.
type Config struct {
	MaxLive     int
	MailboxSize int
}

// NewRuntime builds a runtime named for logging, e.g. "session" or "throttle".
func NewRuntime(name string, cfg Config, factory Factory, log zerolog.Logger) (*Runtime, error) {
	if cfg.MaxLive <= 0 {
		cfg.MaxLive = 1024
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = 64
	}
	r := &Runtime{
		name:        name,
		factory:     factory,
		log:         log.With().Str("component", "actor-runtime").Str("runtime", name).Logger(),
		mailboxSize: cfg.MailboxSize,
		zombies:     make(map[string]*mailbox),
	}
	cache, err := lru.NewWithEvict(cfg.MaxLive, func(_, value any) {
		// Runs while r.mu is held (Add/Remove/Purge are called under it).
		mb := value.(*mailbox)
		close(mb.quit)
		r.zombies[mb.key] = mb
	})
	if err != nil {
		return nil, err
	}
	r.live = cache
	return r, nil
}

// Invoke runs op against the actor for key, serialized with every other
// operation for that key. It blocks until the op has run or ctx is done.
func (r *Runtime) Invoke(ctx context.Context, key string, op Op) error {
	t := task{ctx: ctx, op: op, errCh: make(chan error, 1)}

	for {
		mb, err := r.mailboxFor(key)
		if err != nil {
			return err
		}

		select {
		case mb.tasks <- t:
			select {
			case err := <-t.errCh:
				return err
			case <-mb.done:
				// The enqueue raced with the loop's final drain: the task
				// may have landed after the drain already returned. An
				// unserved task was never executed, so resubmitting it
				// through a fresh mailbox is safe.
				select {
				case err := <-t.errCh:
					return err
				default:
					continue
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-mb.quit:
			// Evicted between lookup and enqueue; fetch a fresh mailbox.
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len reports the number of live mailboxes.
func (r *Runtime) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live.Len()
}

// Shutdown evicts every mailbox and waits for all of them to drain.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.live.Purge()
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		r.log.Warn().Msg("runtime shutdown timed out before mailboxes drained")
		return ctx.Err()
	}
}

func (r *Runtime) mailboxFor(key string) (*mailbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRuntimeClosed
	}
	if v, ok := r.live.Get(key); ok {
		return v.(*mailbox), nil
	}

	// A predecessor for the same key may still be draining after eviction.
	var predecessor chan struct{}
	if z, ok := r.zombies[key]; ok {
		predecessor = z.done
	}

	mb := &mailbox{
		key:   key,
		tasks: make(chan task, r.mailboxSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run(mb, predecessor)
	r.live.Add(key, mb)
	return mb, nil
}

func (r *Runtime) run(mb *mailbox, predecessor chan struct{}) {
	defer r.wg.Done()
	defer func() {
		close(mb.done)
		r.mu.Lock()
		if r.zombies[mb.key] == mb {
			delete(r.zombies, mb.key)
		}
		r.mu.Unlock()
	}()

	if predecessor != nil {
		<-predecessor
	}

	var (
		instance    any
		constructed bool
	)
	execute := func(t task) {
		if t.ctx.Err() != nil {
			t.errCh <- t.ctx.Err()
			return
		}
		if !constructed {
			inst, err := r.factory(t.ctx, mb.key)
			if err != nil {
				r.log.Error().Err(err).Str("key", mb.key).Msg("actor construction failed")
				t.errCh <- err
				return
			}
			instance = inst
			constructed = true
		}
		t.errCh <- t.op(t.ctx, instance)
	}

	for {
		select {
		case t := <-mb.tasks:
			execute(t)
		case <-mb.quit:
			// Drain whatever made it into the queue before eviction.
			for {
				select {
				case t := <-mb.tasks:
					execute(t)
				default:
					return
				}
			}
		}
	}
}
