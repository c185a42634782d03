package throttle

import (
	"context"

	"github.com/rs/zerolog"
)

// SnapshotStore persists bucket state so an evicted actor can reconstruct
// itself. Persistence is best-effort; a cold start resets the bucket full.
type SnapshotStore interface {
	LoadBucket(ctx context.Context, key string) (*Snapshot, error)
	SaveBucket(ctx context.Context, key string, snap Snapshot) error
}

// Actor owns one token bucket for a stable key (an upstream shop domain).
// The actor runtime guarantees one in-flight operation at a time.
type Actor struct {
	key    string
	bucket *Bucket
	store  SnapshotStore
	log    zerolog.Logger
}

// NewActor constructs the actor and reloads any persisted bucket snapshot.
// A missing or unreadable snapshot is not an error.
func NewActor(ctx context.Context, key string, cfg Config, store SnapshotStore, log zerolog.Logger) *Actor {
	a := &Actor{
		key:    key,
		bucket: NewBucket(cfg, nil),
		store:  store,
		log:    log.With().Str("component", "throttle-actor").Str("domain", key).Logger(),
	}
	if store != nil {
		snap, err := store.LoadBucket(ctx, key)
		switch {
		case err != nil:
			a.log.Warn().Err(err).Msg("bucket snapshot unreadable, starting full")
		case snap != nil:
			a.bucket.Restore(*snap)
		}
	}
	return a
}

// Consume takes n tokens, persisting the new level when admission succeeds.
func (a *Actor) Consume(ctx context.Context, n int) Decision {
	decision := a.bucket.Consume(n)
	if decision.Allowed {
		a.persist(ctx)
	}
	return decision
}

// Check reports bucket state without consuming.
func (a *Actor) Check(ctx context.Context) Status {
	return a.bucket.Check()
}

// Reset restores the bucket to full.
func (a *Actor) Reset(ctx context.Context) int {
	tokens := a.bucket.Reset()
	a.persist(ctx)
	return tokens
}

func (a *Actor) persist(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.SaveBucket(ctx, a.key, a.bucket.Snapshot()); err != nil {
		a.log.Warn().Err(err).Msg("persist bucket snapshot")
	}
}
