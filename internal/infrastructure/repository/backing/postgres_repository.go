// Package backing persists archival batches, message copies, and customer
// profiles in the shared Postgres store. Many actors write here
// concurrently, so every operation is an idempotent insert or an upsert
// keyed by a stable id.
package backing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatcart/session-api/internal/domain/chat"
	"github.com/chatcart/session-api/internal/domain/session"
	"github.com/chatcart/session-api/internal/infrastructure/database/entities"
)

// PostgresRepository implements session.BackingStore on GORM/Postgres.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ session.BackingStore = (*PostgresRepository)(nil)

// UpsertSession inserts or updates the session row keyed by session id.
func (r *PostgresRepository) UpsertSession(ctx context.Context, upsert session.SessionUpsert) error {
	row := entities.ChatSession{
		SessionID:  upsert.SessionID,
		ShopDomain: upsert.ShopDomain,
		Status:     string(upsert.Status),
		Summary:    upsert.Summary,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"shop_domain", "status", "summary", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", upsert.SessionID, err)
	}
	return nil
}

// PersistMessages stores the best-effort analytics copy of appended turns.
func (r *PostgresRepository) PersistMessages(ctx context.Context, sessionID string, messages []chat.MessageRecord) error {
	if len(messages) == 0 {
		return nil
	}

	rows := make([]entities.SessionMessage, 0, len(messages))
	for _, msg := range messages {
		toolCalls, err := encodeToolCalls(msg.ToolCalls)
		if err != nil {
			return err
		}
		rows = append(rows, entities.SessionMessage{
			SessionID:  sessionID,
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCalls:  toolCalls,
			ToolCallID: msg.ToolCallID,
			ToolName:   msg.ToolName,
			Timestamp:  msg.Timestamp,
		})
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("persist messages for %s: %w", sessionID, err)
	}
	return nil
}

// ArchiveMessages writes one archival batch and bumps the session's stored
// message counter, creating the session row when absent. The whole batch
// commits atomically so a failed call leaves nothing behind to duplicate.
func (r *PostgresRepository) ArchiveMessages(ctx context.Context, sessionID string, messages []chat.MessageRecord) error {
	if len(messages) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	rows := make([]entities.ArchivedMessage, 0, len(messages))
	for _, msg := range messages {
		toolCalls, err := encodeToolCalls(msg.ToolCalls)
		if err != nil {
			return err
		}
		rows = append(rows, entities.ArchivedMessage{
			SessionID:  sessionID,
			BatchID:    batchID,
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCalls:  toolCalls,
			ToolCallID: msg.ToolCallID,
			ToolName:   msg.ToolName,
			Timestamp:  msg.Timestamp,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert archive batch: %w", err)
		}

		sessionRow := entities.ChatSession{
			SessionID:            sessionID,
			Status:               string(session.SessionStatusActive),
			ArchivedMessageCount: len(rows),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"archived_message_count": gorm.Expr("chat_sessions.archived_message_count + ?", len(rows)),
				"updated_at":             time.Now(),
			}),
		}).Create(&sessionRow).Error
		if err != nil {
			return fmt.Errorf("bump archived counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive messages for %s: %w", sessionID, err)
	}
	return nil
}

// UpsertCustomerProfile merges preferences into the profile row keyed by
// customer id. Merge is shallow, last write wins per key; two sessions for
// the same customer may race here and either outcome is acceptable.
func (r *PostgresRepository) UpsertCustomerProfile(ctx context.Context, upsert session.ProfileUpsert) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged := make(map[string]any)

		var existing entities.CustomerProfile
		err := tx.Where("customer_id = ?", upsert.CustomerID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load profile: %w", err)
		}
		if err == nil && len(existing.GlobalPreferences) > 0 {
			if err := json.Unmarshal(existing.GlobalPreferences, &merged); err != nil {
				return fmt.Errorf("decode existing preferences: %w", err)
			}
		}

		for k, v := range upsert.Preferences {
			merged[k] = v
		}
		blob, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode merged preferences: %w", err)
		}

		row := entities.CustomerProfile{
			CustomerID:        upsert.CustomerID,
			ShopDomain:        upsert.ShopDomain,
			GlobalPreferences: blob,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"shop_domain", "global_preferences", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert customer profile %s: %w", upsert.CustomerID, err)
	}
	return nil
}

func encodeToolCalls(calls []chat.ToolCall) ([]byte, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	blob, err := json.Marshal(calls)
	if err != nil {
		return nil, fmt.Errorf("encode tool calls: %w", err)
	}
	return blob, nil
}
