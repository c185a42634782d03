package entities

import "time"

// ChatSession is the backing store row for one conversation session. It is
// created lazily by the first archival batch or by the close path, and is
// never read on the live request path.
type ChatSession struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	SessionID            string `gorm:"type:varchar(128);uniqueIndex;not null"`
	ShopDomain           string `gorm:"type:varchar(255);index"`
	Status               string `gorm:"type:varchar(16);not null;default:'active'"`
	Summary              string `gorm:"type:text"`
	ArchivedMessageCount int    `gorm:"not null;default:0"`
}

// TableName specifies the table name for ChatSession.
func (ChatSession) TableName() string {
	return "chat_sessions"
}
