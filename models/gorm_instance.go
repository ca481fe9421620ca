package models

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Instance represents one physical file discovered under a Root.
// It corresponds to the 'instances' table; (RootID, RelPath) is unique.
type Instance struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	RootID  uint   `gorm:"not null" json:"root_id"`
	RelPath string `gorm:"size:2048;not null" json:"rel_path"` // slash-separated, relative to the root

	Name      string    `gorm:"size:512;not null" json:"name"`
	Ext       string    `gorm:"size:32;not null" json:"ext"` // lowercase, no dot
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	MtimeUTC  time.Time `gorm:"column:mtime_utc;not null" json:"mtime_utc"`

	Kind           string `gorm:"size:32;not null" json:"kind"` // image, video, document, ...
	NeedsReview    bool   `gorm:"not null" json:"needs_review"`
	SkipProcessing bool   `gorm:"not null" json:"skip_processing"`

	// UI-editable metadata
	DisplayTitle *string `gorm:"size:512" json:"display_title,omitempty"` // Nullable
	Category     *string `gorm:"size:64" json:"category,omitempty"`       // Nullable

	FirstSeenUTC time.Time `gorm:"column:first_seen_utc" json:"first_seen_utc"`
	LastSeenUTC  time.Time `gorm:"column:last_seen_utc" json:"last_seen_utc"`

	// Relationships
	PeopleLinks []InstancePerson `gorm:"foreignKey:InstanceID" json:"people_links,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Instance) TableName() string {
	return "instances"
}

func (i *Instance) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if i.FirstSeenUTC.IsZero() {
		i.FirstSeenUTC = now
	}
	if i.LastSeenUTC.IsZero() {
		i.LastSeenUTC = now
	}
	relPath, err := CleanRelPath(i.RelPath)
	if err != nil {
		return err
	}
	i.RelPath = relPath
	i.Ext = NormalizeExt(i.Ext)
	return nil
}

// NormalizeExt lowercases an extension and strips its leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ErrInvalidRelPath is returned for a path that is empty or leads outside its root.
var ErrInvalidRelPath = errors.New("invalid relative path")

// CleanRelPath converts a root-relative path to the stored slash form.
// Leading slashes are dropped; a path that climbs above the root is rejected.
func CleanRelPath(rel string) (string, error) {
	slashed := strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRelPath, rel)
	}
	return cleaned, nil
}
