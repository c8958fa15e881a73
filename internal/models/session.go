package models

import (
	"fmt"
	"strings"
	"time"
)

// Category is the activity label chosen before a recording starts.
type Category int

const (
	CategoryUnlabeled Category = iota
	CategoryEating
	CategoryNotEating
)

// SessionTimeLayout is the timestamp part of a session folder name.
const SessionTimeLayout = "20060102-150405"

// FolderPrefix returns the prefix used in session folder names.
func (c Category) FolderPrefix() string {
	switch c {
	case CategoryEating:
		return "Eating"
	case CategoryNotEating:
		return "Not-eating"
	default:
		return "Session"
	}
}

func (c Category) String() string {
	switch c {
	case CategoryEating:
		return "eating"
	case CategoryNotEating:
		return "not-eating"
	default:
		return "none"
	}
}

// RequiresLabeling reports whether sessions of this category need manual
// segment labeling. A not-eating session is false everywhere by construction.
func (c Category) RequiresLabeling() bool {
	return c != CategoryNotEating
}

// SessionIdentity names one recording. It never changes after creation.
type SessionIdentity struct {
	Category  Category
	CreatedAt time.Time
}

// Name returns the folder base name, e.g. "Eating-20250301-124502".
func (id SessionIdentity) Name() string {
	return fmt.Sprintf("%s-%s", id.Category.FolderPrefix(), id.CreatedAt.Format(SessionTimeLayout))
}

// ParseSessionName recovers the identity from a folder base name.
func ParseSessionName(name string) (SessionIdentity, error) {
	for _, c := range []Category{CategoryNotEating, CategoryEating, CategoryUnlabeled} {
		prefix := c.FolderPrefix() + "-"
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		ts, err := time.ParseInLocation(SessionTimeLayout, strings.TrimPrefix(name, prefix), time.Local)
		if err != nil {
			return SessionIdentity{}, fmt.Errorf("invalid session timestamp in %q: %w", name, err)
		}
		return SessionIdentity{Category: c, CreatedAt: ts}, nil
	}
	return SessionIdentity{}, fmt.Errorf("unknown session name %q", name)
}

// SessionMeta is the persisted labelled/shared state of a session folder.
type SessionMeta struct {
	Folder    string    `gorm:"primaryKey" json:"folder"`
	Labelled  bool      `gorm:"default:false" json:"labelled"`
	Shared    bool      `gorm:"default:false" json:"shared"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable across renames of the struct.
func (SessionMeta) TableName() string {
	return "session_meta"
}
