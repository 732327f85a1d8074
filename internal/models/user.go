package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255" json:"email"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	PasswordHash string    `gorm:"not null" json:"-"`

	Recipes         []Recipe   `gorm:"foreignKey:UserID" json:"-"`
	FavoriteRecipes []Recipe   `gorm:"many2many:recipe_favorites" json:"-"`
	MealPlans       []MealPlan `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
