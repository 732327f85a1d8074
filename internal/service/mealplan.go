package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/models"
)

// MealPlanService manages the per-(user, date) meal plans. A plan is
// lazily created on first reference and never deleted, only emptied.
type MealPlanService struct {
	db *gorm.DB
}

func NewMealPlanService(db *gorm.DB) *MealPlanService {
	return &MealPlanService{db: db}
}

// GetOrCreatePlan resolves the single plan for (userID, date), creating
// it if absent. Duplicate-plan races are resolved by the (user_id, date)
// unique index: if the insert loses, the winner's row is re-read.
func (s *MealPlanService) GetOrCreatePlan(ctx context.Context, userID uuid.UUID, date datatypes.Date) (*models.MealPlan, error) {
	tx := s.db.WithContext(ctx)

	// date is bound as a driver.Valuer, which truncates the time of day;
	// "today" built from time.Now() still hits the same row.
	plan := models.MealPlan{UserID: userID, Date: date}
	err := tx.Where("user_id = ? AND date = ?", userID, date).
		FirstOrCreate(&plan).Error
	if err != nil {
		var existing models.MealPlan
		if retry := tx.Where("user_id = ? AND date = ?", userID, date).
			First(&existing).Error; retry == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &plan, nil
}

// PlanForDay returns the plan for the day with its recipes loaded, plus
// the candidate recipes the user could still add: their visible set minus
// what is already planned.
func (s *MealPlanService) PlanForDay(ctx context.Context, userID uuid.UUID, date datatypes.Date) (*models.MealPlan, []models.Recipe, error) {
	plan, err := s.GetOrCreatePlan(ctx, userID, date)
	if err != nil {
		return nil, nil, err
	}

	tx := s.db.WithContext(ctx)
	err = preloadChildren(tx.Model(&models.Recipe{})).
		Joins("JOIN meal_plan_recipes ON meal_plan_recipes.recipe_id = recipes.id").
		Where("meal_plan_recipes.meal_plan_id = ?", plan.ID).
		Order("recipes.title ASC, recipes.id ASC").
		Find(&plan.Recipes).Error
	if err != nil {
		return nil, nil, err
	}

	var candidates []models.Recipe
	err = preloadChildren(tx.Model(&models.Recipe{})).
		Scopes(VisibleTo(&userID)).
		Where("recipes.id NOT IN (SELECT recipe_id FROM meal_plan_recipes WHERE meal_plan_id = ?)", plan.ID).
		Order("recipes.title ASC, recipes.id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, nil, err
	}
	return plan, candidates, nil
}

// AddRecipe links a recipe visible to the user onto the day's plan.
// Adding an already-present recipe is a no-op.
func (s *MealPlanService) AddRecipe(ctx context.Context, userID uuid.UUID, date datatypes.Date, recipeID uuid.UUID) error {
	tx := s.db.WithContext(ctx)

	var recipe models.Recipe
	err := tx.Scopes(VisibleTo(&userID)).First(&recipe, "recipes.id = ?", recipeID).Error
	if err != nil {
		return err
	}

	plan, err := s.GetOrCreatePlan(ctx, userID, date)
	if err != nil {
		return err
	}
	return tx.Model(plan).Association("Recipes").Append(&recipe)
}

// RemoveRecipe detaches a recipe from the day's plan. Removing an absent
// association is a no-op, not an error.
func (s *MealPlanService) RemoveRecipe(ctx context.Context, userID uuid.UUID, date datatypes.Date, recipeID uuid.UUID) error {
	tx := s.db.WithContext(ctx)

	var plan models.MealPlan
	err := tx.Where("user_id = ? AND date = ?", userID, date).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(&plan).Association("Recipes").Delete(&models.Recipe{ID: recipeID})
}
