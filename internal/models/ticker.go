package models

import (
	"time"
)

// Ticker is one row of the symbol universe. Rows are created by explicit add
// or the catalog bulk-load and are never deleted by the sync pipeline.
type Ticker struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"type:text;uniqueIndex;not null"`
	CIK       *string   `gorm:"column:cik;type:text;uniqueIndex"`
	Exchange  *string   `gorm:"type:text;index"`
	Name      *string   `gorm:"type:text"`
	Tags      *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	WatchEntry *WatchEntry `gorm:"constraint:OnDelete:CASCADE"`
	Filings    []Filing    `gorm:"constraint:OnDelete:CASCADE"`
	Notes      []Note      `gorm:"constraint:OnDelete:CASCADE"`
}

func (Ticker) TableName() string {
	return "tickers"
}
