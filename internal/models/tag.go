package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is a free-text label, globally unique by name. Tags are created on
// first use and never deleted when they become unreferenced.
type Tag struct {
	ID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Tag string    `gorm:"size:100;not null;uniqueIndex" json:"tag"`

	Recipes []Recipe `gorm:"many2many:recipe_tags" json:"-"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
