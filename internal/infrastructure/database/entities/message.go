package entities

import (
	"time"

	"gorm.io/datatypes"
)

// SessionMessage is the best-effort durability/analytics copy of a single
// appended turn, written off the caller's critical path.
type SessionMessage struct {
	ID         uint           `gorm:"primaryKey"`
	SessionID  string         `gorm:"type:varchar(128);index;not null"`
	Role       string         `gorm:"type:varchar(16);not null"`
	Content    string         `gorm:"type:text"`
	ToolCalls  datatypes.JSON `gorm:"type:jsonb"`
	ToolCallID string         `gorm:"type:varchar(64)"`
	ToolName   string         `gorm:"type:varchar(128)"`
	Timestamp  int64          `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

// TableName specifies the table name for SessionMessage.
func (SessionMessage) TableName() string {
	return "session_messages"
}

// ArchivedMessage is a turn moved out of a session's live log by archival.
// Rows in one batch share a BatchID so a retried batch can be detected.
type ArchivedMessage struct {
	ID         uint           `gorm:"primaryKey"`
	SessionID  string         `gorm:"type:varchar(128);index;not null"`
	BatchID    string         `gorm:"type:varchar(36);index;not null"`
	Role       string         `gorm:"type:varchar(16);not null"`
	Content    string         `gorm:"type:text"`
	ToolCalls  datatypes.JSON `gorm:"type:jsonb"`
	ToolCallID string         `gorm:"type:varchar(64)"`
	ToolName   string         `gorm:"type:varchar(128)"`
	Timestamp  int64          `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

// TableName specifies the table name for ArchivedMessage.
func (ArchivedMessage) TableName() string {
	return "archived_messages"
}
