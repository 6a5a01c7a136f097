package models

import "time"

type Note struct {
	ID         uint      `gorm:"primaryKey"`
	TickerID   uint      `gorm:"index;not null"`
	Title      string    `gorm:"type:text;not null"`
	Content    *string   `gorm:"type:text"`
	Attachment *string   `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (Note) TableName() string {
	return "notes"
}
