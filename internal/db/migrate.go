package db

import (
	"filingwatch/internal/models"
)

// AutoMigrate creates or evolves the schema. Order matters: owners before
// owned so the cascade constraints resolve.
func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.Ticker{},
		&models.WatchEntry{},
		&models.Note{},
		&models.Filing{},
		&models.Metric{},
		&models.Alert{},
		&models.SyncState{},
	)
}
