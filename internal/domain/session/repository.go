package session

import (
	"context"

	"github.com/chatcart/session-api/internal/domain/chat"
)

// StateStore is the per-actor durable store. All access is serialized by
// the actor runtime, so implementations need no locking per key.
type StateStore interface {
	LoadMetadata(ctx context.Context, key string) (*chat.SessionMetadata, error)
	SaveMetadata(ctx context.Context, key string, meta chat.SessionMetadata) error
	AppendMessage(ctx context.Context, key string, msg chat.MessageRecord) error
	Messages(ctx context.Context, key string, limit int) ([]chat.MessageRecord, error)
	CountMessages(ctx context.Context, key string) (int, error)
	OldestMessages(ctx context.Context, key string, n int) ([]chat.MessageRecord, error)
	RemoveOldest(ctx context.Context, key string, n int) error
	ClearMessages(ctx context.Context, key string) error
}

// SessionStatus is the lifecycle flag on the backing store session row.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// SessionUpsert is the backing store session row payload.
type SessionUpsert struct {
	SessionID  string
	ShopDomain string
	Status     SessionStatus
	Summary    string
}

// ProfileUpsert merges preferences into the cross-session customer profile.
type ProfileUpsert struct {
	CustomerID  string
	ShopDomain  string
	Preferences map[string]any
}

// BackingStore is the shared cross-actor store used for archival, the
// best-effort message copy, and profile aggregation. Every method must be
// safe to call repeatedly with the same logical data.
type BackingStore interface {
	UpsertSession(ctx context.Context, upsert SessionUpsert) error
	PersistMessages(ctx context.Context, sessionID string, messages []chat.MessageRecord) error
	ArchiveMessages(ctx context.Context, sessionID string, messages []chat.MessageRecord) error
	UpsertCustomerProfile(ctx context.Context, upsert ProfileUpsert) error
}

// MessageSink receives appended messages for asynchronous, fire-and-forget
// persistence to the backing store.
type MessageSink interface {
	Persist(sessionID string, msg chat.MessageRecord)
}
