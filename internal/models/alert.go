package models

import "time"

// Alert is one unread notification for a newly inserted filing.
// Read is monotonic: once true it never reverts.
type Alert struct {
	ID        uint      `gorm:"primaryKey"`
	FilingID  uint      `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
	Read      bool      `gorm:"not null;default:false"`

	Filing *Filing
}

func (Alert) TableName() string {
	return "alerts"
}
