package models

// Person represents a named individual that can be tagged onto instances.
// It corresponds to the 'people' table.
type Person struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:160;not null;unique" json:"name"`

	// Relationships
	InstanceLinks []InstancePerson `gorm:"foreignKey:PersonID" json:"instance_links,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}
