package models

import (
	"time"

	"gorm.io/gorm"
)

// Root represents a watched top-level directory.
// It corresponds to the 'roots' table. Roots are soft-disabled through
// IsActive and never removed. A new root is always created active.
type Root struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"size:120;not null;unique" json:"name"`
	Path       string    `gorm:"size:1024;not null" json:"path"` // absolute
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedUTC time.Time `gorm:"column:created_utc" json:"created_utc"`

	Instances []Instance `gorm:"foreignKey:RootID" json:"instances,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Root) TableName() string {
	return "roots"
}

func (r *Root) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedUTC.IsZero() {
		r.CreatedUTC = time.Now().UTC()
	}
	return nil
}
