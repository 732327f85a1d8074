package database

import (
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/models"
)

// Migrate applies the schema for every persisted entity, join tables
// included.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Recipe{},
		&models.Ingredient{},
		&models.RecipeStep{},
		&models.MealPlan{},
	)
}
