package throttle

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotStore struct {
	snapshots map[string]Snapshot
	loadErr   error
	saveErr   error
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snapshots: make(map[string]Snapshot)}
}

func (f *fakeSnapshotStore) LoadBucket(ctx context.Context, key string) (*Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	snap, ok := f.snapshots[key]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (f *fakeSnapshotStore) SaveBucket(ctx context.Context, key string, snap Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots[key] = snap
	return nil
}

func TestActorColdStartIsFull(t *testing.T) {
	a := NewActor(context.Background(), "shoes.example.com", DefaultConfig(), newFakeSnapshotStore(), zerolog.Nop())

	status := a.Check(context.Background())
	assert.Equal(t, 40, status.Tokens)
}

func TestActorConsumePersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newFakeSnapshotStore()
	a := NewActor(ctx, "shoes.example.com", DefaultConfig(), store, zerolog.Nop())

	decision := a.Consume(ctx, 3)
	require.True(t, decision.Allowed)

	snap, ok := store.snapshots["shoes.example.com"]
	require.True(t, ok)
	assert.Equal(t, 37, snap.Tokens)
}

func TestActorRestoresFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newFakeSnapshotStore()

	first := NewActor(ctx, "shoes.example.com", DefaultConfig(), store, zerolog.Nop())
	for i := 0; i < 10; i++ {
		first.Consume(ctx, 1)
	}

	// A successor actor for the same key picks up where the first left off.
	second := NewActor(ctx, "shoes.example.com", DefaultConfig(), store, zerolog.Nop())
	status := second.Check(ctx)
	assert.Equal(t, 30, status.Tokens)
}

func TestActorUnreadableSnapshotStartsFull(t *testing.T) {
	ctx := context.Background()
	store := newFakeSnapshotStore()
	store.loadErr = errors.New("disk error")

	a := NewActor(ctx, "shoes.example.com", DefaultConfig(), store, zerolog.Nop())
	assert.Equal(t, 40, a.Check(ctx).Tokens)
}

func TestActorDenialNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := newFakeSnapshotStore()
	a := NewActor(ctx, "shoes.example.com", DefaultConfig(), store, zerolog.Nop())

	for i := 0; i < 40; i++ {
		a.Consume(ctx, 1)
	}
	saved := store.snapshots["shoes.example.com"]

	denied := a.Consume(ctx, 1)
	require.False(t, denied.Allowed)
	assert.Equal(t, saved, store.snapshots["shoes.example.com"], "a denial writes nothing")
}

func TestActorResetPersists(t *testing.T) {
	ctx := context.Background()
	store := newFakeSnapshotStore()
	a := NewActor(ctx, "shoes.example.com", DefaultConfig(), store, zerolog.Nop())

	a.Consume(ctx, 10)
	tokens := a.Reset(ctx)
	assert.Equal(t, 40, tokens)
	assert.Equal(t, 40, store.snapshots["shoes.example.com"].Tokens)
}

func TestActorSaveFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	store := newFakeSnapshotStore()
	store.saveErr = errors.New("disk full")
	a := NewActor(ctx, "shoes.example.com", DefaultConfig(), store, zerolog.Nop())

	decision := a.Consume(ctx, 1)
	assert.True(t, decision.Allowed, "persistence is best-effort")
}
