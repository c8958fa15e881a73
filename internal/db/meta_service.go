package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/bitelog/internal/metadata"
	"github.com/balkashynov/bitelog/internal/models"
)

// MetadataBackend persists the session metadata map in the session_meta table.
type MetadataBackend struct {
	db *gorm.DB
}

// NewMetadataBackend returns a backend over an opened database.
func NewMetadataBackend(db *gorm.DB) *MetadataBackend {
	return &MetadataBackend{db: db}
}

// Load reads every row into a map keyed by folder name.
func (b *MetadataBackend) Load() (map[string]metadata.Entry, error) {
	var rows []models.SessionMeta
	if err := b.db.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make(map[string]metadata.Entry, len(rows))
	for _, row := range rows {
		entries[row.Folder] = metadata.Entry{Labelled: row.Labelled, Shared: row.Shared}
	}
	return entries, nil
}

// Save makes the table match entries: rows for missing folders are deleted and
// the rest are upserted.
func (b *MetadataBackend) Save(entries map[string]metadata.Entry) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		folders := make([]string, 0, len(entries))
		for folder := range entries {
			folders = append(folders, folder)
		}

		// Drop rows that are no longer in the map
		del := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(folders) > 0 {
			del = del.Where("folder NOT IN ?", folders)
		}
		if err := del.Delete(&models.SessionMeta{}).Error; err != nil {
			return err
		}

		if len(folders) == 0 {
			return nil
		}

		rows := make([]models.SessionMeta, 0, len(entries))
		for folder, e := range entries {
			rows = append(rows, models.SessionMeta{Folder: folder, Labelled: e.Labelled, Shared: e.Shared})
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "folder"}},
			DoUpdates: clause.AssignmentColumns([]string{"labelled", "shared", "updated_at"}),
		}).Create(&rows).Error
	})
}
