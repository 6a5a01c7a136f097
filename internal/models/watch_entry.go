package models

import "time"

// WatchEntry marks a ticker as actively polled. At most one per ticker.
type WatchEntry struct {
	ID        uint      `gorm:"primaryKey"`
	TickerID  uint      `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (WatchEntry) TableName() string {
	return "watchlist"
}
