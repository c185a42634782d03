package entities

import (
	"time"

	"gorm.io/datatypes"
)

// CustomerProfile aggregates preferences for a repeat customer across
// sessions. Upserted only at session close; last write wins per field.
type CustomerProfile struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	CustomerID        string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	ShopDomain        string         `gorm:"type:varchar(255);index"`
	GlobalPreferences datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for CustomerProfile.
func (CustomerProfile) TableName() string {
	return "customer_profiles"
}
