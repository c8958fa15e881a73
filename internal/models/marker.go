package models

import "time"

// MarkerRecord is a persisted labeling marker.
type MarkerRecord struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Session   string    `gorm:"index;not null" json:"session"`
	Time      float64   `gorm:"not null" json:"time"`
	Kind      string    `gorm:"not null" json:"kind"` // start, end
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for MarkerRecord
func (MarkerRecord) TableName() string {
	return "markers"
}
