package models

import (
	"time"

	"gorm.io/gorm"
)

// LinkSource records how a person came to be tagged on an instance.
type LinkSource string

const (
	SourceManual     LinkSource = "manual"
	SourceLLM        LinkSource = "llm"
	SourcePath       LinkSource = "path"
	SourceOCR        LinkSource = "ocr"
	SourceTranscript LinkSource = "transcript"
)

// Valid reports whether s is one of the known provenance values.
func (s LinkSource) Valid() bool {
	switch s {
	case SourceManual, SourceLLM, SourcePath, SourceOCR, SourceTranscript:
		return true
	}
	return false
}

// InstancePerson links an instance to a person.
// It corresponds to the 'instance_people' table. Deleting either side
// removes the link through ON DELETE CASCADE.
type InstancePerson struct {
	InstanceID uint       `gorm:"primaryKey;autoIncrement:false" json:"instance_id"`
	PersonID   uint       `gorm:"primaryKey;autoIncrement:false" json:"person_id"`
	Source     LinkSource `gorm:"size:32;not null" json:"source"`
	CreatedUTC time.Time  `gorm:"column:created_utc" json:"created_utc"`

	Person *Person `gorm:"foreignKey:PersonID" json:"person,omitempty"` // Belongs to Person
}

// TableName explicitly sets the table name for GORM.
func (InstancePerson) TableName() string {
	return "instance_people"
}

func (ip *InstancePerson) BeforeCreate(tx *gorm.DB) error {
	if ip.Source == "" {
		ip.Source = SourceManual
	}
	if ip.CreatedUTC.IsZero() {
		ip.CreatedUTC = time.Now().UTC()
	}
	return nil
}
