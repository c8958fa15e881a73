package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/balkashynov/bitelog/internal/labeling"
	"github.com/balkashynov/bitelog/internal/models"
)

// MarkerStore persists labeling markers in the markers table.
type MarkerStore struct {
	db *gorm.DB
}

// NewMarkerStore returns a marker store over an opened database.
func NewMarkerStore(db *gorm.DB) *MarkerStore {
	return &MarkerStore{db: db}
}

// LoadMarkers returns the markers of session in their saved order.
func (s *MarkerStore) LoadMarkers(session string) ([]labeling.Marker, error) {
	var rows []models.MarkerRecord
	err := s.db.Where("session = ?", session).Order("position ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load markers for %s: %w", session, err)
	}

	markers := make([]labeling.Marker, 0, len(rows))
	for _, row := range rows {
		kind, err := labeling.ParseKind(row.Kind)
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", row.ID, err)
		}
		markers = append(markers, labeling.Marker{ID: row.ID, Time: row.Time, Kind: kind})
	}
	return markers, nil
}

// SaveMarkers replaces the stored markers of session.
func (s *MarkerStore) SaveMarkers(session string, markers []labeling.Marker) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session = ?", session).Delete(&models.MarkerRecord{}).Error; err != nil {
			return err
		}
		if len(markers) == 0 {
			return nil
		}

		rows := make([]models.MarkerRecord, len(markers))
		for i, m := range markers {
			rows[i] = models.MarkerRecord{
				ID:       m.ID,
				Session:  session,
				Time:     m.Time,
				Kind:     m.Kind.String(),
				Position: i,
			}
		}
		return tx.Create(&rows).Error
	})
}

// DeleteMarkers removes every marker of session.
func (s *MarkerStore) DeleteMarkers(session string) error {
	return s.db.Where("session = ?", session).Delete(&models.MarkerRecord{}).Error
}
