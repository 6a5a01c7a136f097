package models

import (
	"time"

	"gorm.io/datatypes"
)

type SyncState struct {
	Scope         string         `gorm:"primaryKey;type:text"`
	LastSuccessAt *time.Time     `gorm:"type:datetime"`
	LastAttemptAt *time.Time     `gorm:"type:datetime"`
	LastError     *string        `gorm:"type:text"`
	StatsJSON     datatypes.JSON `gorm:"type:json"`
}

func (SyncState) TableName() string {
	return "sync_state"
}
