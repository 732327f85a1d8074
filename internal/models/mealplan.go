package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MealPlan is a per-user, per-calendar-day collection of recipe
// references. The (user_id, date) unique index is the enforcement point
// for the one-plan-per-day rule.
type MealPlan struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_meal_plans_user_date" json:"user_id"`
	Date      datatypes.Date `gorm:"not null;uniqueIndex:idx_meal_plans_user_date" json:"date"`

	Recipes []Recipe `gorm:"many2many:meal_plan_recipes" json:"-"`
}

func (p *MealPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
