package models

import (
	"time"

	"gorm.io/datatypes"
)

// Filing is the durable record of one disclosure's metadata.
// (source, external_id) is the deduplication key; identity fields are
// immutable after insert, title/url may refresh on re-sight.
type Filing struct {
	ID         uint           `gorm:"primaryKey"`
	TickerID   uint           `gorm:"index;not null"`
	Source     string         `gorm:"type:text;not null;default:sec;uniqueIndex:uq_source_external,priority:1"`
	ExternalID string         `gorm:"type:text;not null;uniqueIndex:uq_source_external,priority:2"`
	Type       string         `gorm:"type:text;not null"`
	Title      *string        `gorm:"type:text"`
	Date       datatypes.Date `gorm:"not null;index"`
	URL        *string        `gorm:"type:text"`
	IsNew      bool           `gorm:"not null;default:true"`
	Hash       *string        `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`

	Ticker  *Ticker
	Metrics []Metric `gorm:"constraint:OnDelete:CASCADE"`
	Alerts  []Alert  `gorm:"constraint:OnDelete:CASCADE"`
}

func (Filing) TableName() string {
	return "filings"
}
