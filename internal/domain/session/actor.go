package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/domain/chat"
	"github.com/chatcart/session-api/internal/utils/apperrors"
)

// Config is the conversation actor behaviour.
type Config struct {
	// MaxMessages caps the live log. Appending past the cap archives the
	// excess synchronously before the append returns.
	MaxMessages int
	// InactivityWindow is how long a session may sit idle before the wake
	// timer closes it.
	InactivityWindow time.Duration
	// BackingTimeout bounds every backing store call so a slow shared
	// store cannot stall the actor.
	BackingTimeout time.Duration
}

// Actor owns one conversation: the ordered message log, the session
// metadata, the archival decision, and the inactivity close. The runtime
// guarantees one in-flight operation at a time, so the struct needs no
// internal locking.
type Actor struct {
	key     string
	cfg     Config
	store   StateStore
	backing BackingStore
	sink    MessageSink
	log     zerolog.Logger
	now     func() time.Time

	meta          chat.SessionMetadata
	lastTimestamp int64
	dueAt         time.Time
	timer         *time.Timer
	wake          func(key string)
}

// NewActor reconstructs the actor from its durable store. A store read
// failure falls back to default empty state rather than failing the actor.
func NewActor(
	ctx context.Context,
	key string,
	cfg Config,
	store StateStore,
	backing BackingStore,
	sink MessageSink,
	wake func(key string),
	log zerolog.Logger,
	nowFn func() time.Time,
) *Actor {
	if nowFn == nil {
		nowFn = time.Now
	}
	a := &Actor{
		key:     key,
		cfg:     cfg,
		store:   store,
		backing: backing,
		sink:    sink,
		wake:    wake,
		log:     log.With().Str("component", "session-actor").Str("session_id", key).Logger(),
		now:     nowFn,
	}

	now := a.now()
	meta, err := store.LoadMetadata(ctx, key)
	switch {
	case err != nil:
		a.log.Warn().Err(err).Msg("metadata unreadable, starting from defaults")
		a.meta = chat.NewSessionMetadata(now)
	case meta == nil:
		a.meta = chat.NewSessionMetadata(now)
		if err := store.SaveMetadata(ctx, key, a.meta); err != nil {
			a.log.Warn().Err(err).Msg("persist default metadata")
		}
	default:
		a.meta = *meta
	}

	if recent, err := store.Messages(ctx, key, 1); err == nil && len(recent) > 0 {
		a.lastTimestamp = recent[0].Timestamp
	}

	// Recover the wake timer from the persisted activity time. An overdue
	// session gets a short fuse so the close runs unless new activity
	// rearms the timer first.
	a.dueAt = a.meta.LastActivity.Add(cfg.InactivityWindow)
	remaining := a.dueAt.Sub(now)
	if remaining < time.Second {
		remaining = time.Second
	}
	a.armTimer(remaining)

	return a
}

// Append validates, timestamps, and stores one turn, then reschedules the
// wake timer. When the live log exceeds the cap the excess is archived
// before the new count is returned. The backing store copy of the message
// is queued fire-and-forget.
func (a *Actor) Append(ctx context.Context, msg chat.MessageRecord) (int, error) {
	if err := msg.Validate(); err != nil {
		return 0, err
	}

	now := a.now()
	if msg.Timestamp == 0 {
		msg.Timestamp = now.UnixMilli()
	}
	// Timestamps are monotonically non-decreasing within one session.
	if msg.Timestamp < a.lastTimestamp {
		msg.Timestamp = a.lastTimestamp
	}

	if err := a.store.AppendMessage(ctx, a.key, msg); err != nil {
		return 0, a.storeErr(ctx, "append message", err)
	}
	a.lastTimestamp = msg.Timestamp

	a.meta.LastActivity = now
	if err := a.store.SaveMetadata(ctx, a.key, a.meta); err != nil {
		return 0, a.storeErr(ctx, "save metadata", err)
	}
	a.reschedule(now)

	if a.sink != nil {
		a.sink.Persist(a.key, msg)
	}

	count, err := a.store.CountMessages(ctx, a.key)
	if err != nil {
		return 0, a.storeErr(ctx, "count messages", err)
	}
	if count > a.cfg.MaxMessages {
		archived, err := a.archiveExcess(ctx, count)
		if err != nil {
			return 0, err
		}
		count -= archived
	}
	return count, nil
}

// List returns the most recent limit messages in append order; limit <= 0
// returns the whole live log.
func (a *Actor) List(ctx context.Context, limit int) ([]chat.MessageRecord, error) {
	messages, err := a.store.Messages(ctx, a.key, limit)
	if err != nil {
		return nil, a.storeErr(ctx, "list messages", err)
	}
	return messages, nil
}

// Count returns the live log length.
func (a *Actor) Count(ctx context.Context) (int, error) {
	count, err := a.store.CountMessages(ctx, a.key)
	if err != nil {
		return 0, a.storeErr(ctx, "count messages", err)
	}
	return count, nil
}

// Clear deletes the live log. Metadata is untouched. Idempotent.
func (a *Actor) Clear(ctx context.Context) error {
	if err := a.store.ClearMessages(ctx, a.key); err != nil {
		return a.storeErr(ctx, "clear messages", err)
	}
	a.reschedule(a.now())
	return nil
}

// Metadata returns the current session metadata.
func (a *Actor) Metadata(ctx context.Context) chat.SessionMetadata {
	return a.meta
}

// UpdateMetadata shallow-merges the patch and refreshes last_activity.
func (a *Actor) UpdateMetadata(ctx context.Context, patch chat.MetadataPatch) (chat.SessionMetadata, error) {
	now := a.now()
	a.meta.Apply(patch, now)
	if err := a.store.SaveMetadata(ctx, a.key, a.meta); err != nil {
		return chat.SessionMetadata{}, a.storeErr(ctx, "save metadata", err)
	}
	a.reschedule(now)
	return a.meta, nil
}

// Archive runs the archival pass explicitly. Safe when nothing is due.
func (a *Actor) Archive(ctx context.Context) (int, error) {
	count, err := a.store.CountMessages(ctx, a.key)
	if err != nil {
		return 0, a.storeErr(ctx, "count messages", err)
	}
	if count <= a.cfg.MaxMessages {
		return 0, nil
	}
	return a.archiveExcess(ctx, count)
}

// archiveExcess moves the oldest messages beyond the cap to the backing
// store, then removes exactly those from the live log. A backing store
// failure is logged and swallowed with nothing removed, so the next
// trigger retries; the live log only shrinks after a successful write.
func (a *Actor) archiveExcess(ctx context.Context, count int) (int, error) {
	excess := count - a.cfg.MaxMessages
	if excess <= 0 {
		return 0, nil
	}

	oldest, err := a.store.OldestMessages(ctx, a.key, excess)
	if err != nil {
		return 0, a.storeErr(ctx, "load oldest messages", err)
	}

	backingCtx, cancel := context.WithTimeout(ctx, a.cfg.BackingTimeout)
	defer cancel()
	if err := a.backing.ArchiveMessages(backingCtx, a.key, oldest); err != nil {
		a.log.Warn().Err(err).Int("excess", excess).Msg("archival write failed, will retry on next trigger")
		return 0, nil
	}

	if err := a.store.RemoveOldest(ctx, a.key, excess); err != nil {
		return 0, a.storeErr(ctx, "remove archived messages", err)
	}

	a.log.Debug().Int("archived", excess).Msg("archived oldest messages")
	return excess, nil
}

// MaybeClose runs when the wake timer fires. If activity rescheduled the
// deadline it simply rearms; otherwise it flags the backing session row
// closed and merges the customer profile. The live log and metadata are
// never touched, so a later append transparently reopens the session.
// Firing twice without intervening activity repeats idempotent upserts.
func (a *Actor) MaybeClose(ctx context.Context) error {
	now := a.now()
	if now.Before(a.dueAt) {
		a.armTimer(a.dueAt.Sub(now))
		return nil
	}

	// Defensive reload in case a prior eviction left the in-memory copy
	// stale relative to the durable store.
	if meta, err := a.store.LoadMetadata(ctx, a.key); err == nil && meta != nil {
		a.meta = *meta
	}

	backingCtx, cancel := context.WithTimeout(ctx, a.cfg.BackingTimeout)
	defer cancel()

	err := a.backing.UpsertSession(backingCtx, SessionUpsert{
		SessionID:  a.key,
		ShopDomain: a.meta.ShopDomain,
		Status:     SessionStatusClosed,
		Summary:    "Conversation closed after inactivity.",
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("close: session row upsert failed")
	}

	if a.meta.CustomerID != "" {
		err := a.backing.UpsertCustomerProfile(backingCtx, ProfileUpsert{
			CustomerID:  a.meta.CustomerID,
			ShopDomain:  a.meta.ShopDomain,
			Preferences: a.meta.Preferences,
		})
		if err != nil {
			a.log.Warn().Err(err).Msg("close: customer profile upsert failed")
		}
	}

	a.log.Info().Msg("session closed after inactivity window")
	return nil
}

func (a *Actor) storeErr(ctx context.Context, msg string, err error) error {
	return apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeDatabase, msg, err, "session_store_failure")
}

// Stop cancels the pending wake timer, if any.
func (a *Actor) Stop() {
	if a.timer != nil {
		a.timer.Stop()
	}
}

// reschedule pushes the close deadline to now + window and rearms the
// timer. Called on every mutating operation.
func (a *Actor) reschedule(now time.Time) {
	a.dueAt = now.Add(a.cfg.InactivityWindow)
	a.armTimer(a.cfg.InactivityWindow)
}

func (a *Actor) armTimer(d time.Duration) {
	if a.timer != nil {
		a.timer.Stop()
	}
	if a.wake == nil {
		return
	}
	key := a.key
	wake := a.wake
	a.timer = time.AfterFunc(d, func() { wake(key) })
}
