// Package actorstore is the durable store private to each actor instance.
// It is an embedded SQLite database namespaced by actor key: the live
// message log and metadata for conversation actors, bucket snapshots for
// throttle actors. It survives process restarts and actor eviction.
package actorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatcart/session-api/internal/domain/chat"
	"github.com/chatcart/session-api/internal/domain/throttle"
)

// Store wraps the embedded database.
type Store struct {
	db *gorm.DB
}

// Open creates or opens the SQLite file and migrates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create actor store dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open actor store: %w", err)
	}

	if err := db.AutoMigrate(&sessionState{}, &sessionMessage{}, &bucketState{}); err != nil {
		return nil, fmt.Errorf("migrate actor store: %w", err)
	}

	return &Store{db: db}, nil
}

// sessionState holds one conversation actor's metadata blob.
type sessionState struct {
	Key       string `gorm:"primaryKey;size:128"`
	Metadata  []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}

func (sessionState) TableName() string { return "session_state" }

// sessionMessage is one live-log row. Append order equals row id order.
type sessionMessage struct {
	ID         uint   `gorm:"primaryKey"`
	SessionKey string `gorm:"size:128;index"`
	Role       string `gorm:"size:16"`
	Content    string
	ToolCalls  []byte `gorm:"type:blob"`
	ToolCallID string `gorm:"size:64"`
	ToolName   string `gorm:"size:128"`
	Timestamp  int64
	CreatedAt  time.Time
}

func (sessionMessage) TableName() string { return "session_messages" }

// bucketState snapshots one throttle actor's bucket.
type bucketState struct {
	Key          string `gorm:"primaryKey;size:128"`
	Tokens       int
	LastRefillMs int64
	UpdatedAt    time.Time
}

func (bucketState) TableName() string { return "bucket_state" }

// LoadMetadata returns the persisted metadata for key, or nil when the
// session has never been seen.
func (s *Store) LoadMetadata(ctx context.Context, key string) (*chat.SessionMetadata, error) {
	var row sessionState
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session metadata: %w", err)
	}

	var meta chat.SessionMetadata
	if err := json.Unmarshal(row.Metadata, &meta); err != nil {
		return nil, fmt.Errorf("decode session metadata: %w", err)
	}
	return &meta, nil
}

// SaveMetadata upserts the metadata blob for key.
func (s *Store) SaveMetadata(ctx context.Context, key string, meta chat.SessionMetadata) error {
	blob, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}
	row := sessionState{Key: key, Metadata: blob, UpdatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save session metadata: %w", err)
	}
	return nil
}

// AppendMessage inserts one message at the tail of the live log.
func (s *Store) AppendMessage(ctx context.Context, key string, msg chat.MessageRecord) error {
	row, err := toMessageRow(key, msg)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Messages returns the live log in append order. limit > 0 restricts the
// result to the most recent limit messages, still in append order.
func (s *Store) Messages(ctx context.Context, key string, limit int) ([]chat.MessageRecord, error) {
	var rows []sessionMessage
	q := s.db.WithContext(ctx).Where("session_key = ?", key)
	if limit > 0 {
		if err := q.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		// Reverse back into append order.
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	} else {
		if err := q.Order("id ASC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
	}

	return toRecords(rows)
}

// CountMessages returns the live log length.
func (s *Store) CountMessages(ctx context.Context, key string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&sessionMessage{}).
		Where("session_key = ?", key).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return int(count), nil
}

// OldestMessages returns the n head-most messages in append order.
func (s *Store) OldestMessages(ctx context.Context, key string, n int) ([]chat.MessageRecord, error) {
	var rows []sessionMessage
	err := s.db.WithContext(ctx).
		Where("session_key = ?", key).
		Order("id ASC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("oldest messages: %w", err)
	}
	return toRecords(rows)
}

// RemoveOldest deletes exactly the n head-most messages.
func (s *Store) RemoveOldest(ctx context.Context, key string, n int) error {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&sessionMessage{}).
		Where("session_key = ?", key).
		Order("id ASC").
		Limit(n).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("select oldest for removal: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&sessionMessage{}, ids).Error; err != nil {
		return fmt.Errorf("remove oldest: %w", err)
	}
	return nil
}

// ClearMessages deletes the entire live log for key. Idempotent.
func (s *Store) ClearMessages(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("session_key = ?", key).
		Delete(&sessionMessage{}).Error
	if err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

// LoadBucket returns the persisted bucket snapshot, or nil on cold start.
func (s *Store) LoadBucket(ctx context.Context, key string) (*throttle.Snapshot, error) {
	var row bucketState
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bucket: %w", err)
	}
	return &throttle.Snapshot{
		Tokens:     row.Tokens,
		LastRefill: time.UnixMilli(row.LastRefillMs),
	}, nil
}

// SaveBucket upserts the bucket snapshot.
func (s *Store) SaveBucket(ctx context.Context, key string, snap throttle.Snapshot) error {
	row := bucketState{
		Key:          key,
		Tokens:       snap.Tokens,
		LastRefillMs: snap.LastRefill.UnixMilli(),
		UpdatedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save bucket: %w", err)
	}
	return nil
}

func toMessageRow(key string, msg chat.MessageRecord) (*sessionMessage, error) {
	row := &sessionMessage{
		SessionKey: key,
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
		ToolName:   msg.ToolName,
		Timestamp:  msg.Timestamp,
		CreatedAt:  time.Now(),
	}
	if len(msg.ToolCalls) > 0 {
		blob, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return nil, fmt.Errorf("encode tool calls: %w", err)
		}
		row.ToolCalls = blob
	}
	return row, nil
}

func toRecords(rows []sessionMessage) ([]chat.MessageRecord, error) {
	records := make([]chat.MessageRecord, 0, len(rows))
	for _, row := range rows {
		rec := chat.MessageRecord{
			Role:       chat.Role(row.Role),
			Content:    row.Content,
			Timestamp:  row.Timestamp,
			ToolCallID: row.ToolCallID,
			ToolName:   row.ToolName,
		}
		if len(row.ToolCalls) > 0 {
			if err := json.Unmarshal(row.ToolCalls, &rec.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
