package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/models"
)

// RecipeService handles recipe queries and mutations. Every read path and
// every mutation that accepts a recipe id from an untrusted caller goes
// through the VisibleTo scope or an owner-scoped lookup; a visibility miss
// surfaces as gorm.ErrRecordNotFound so private recipes are
// indistinguishable from absent ones.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// VisibleTo scopes a recipe query to what the given principal may read:
// public recipes plus, for an authenticated principal, their own.
func VisibleTo(userID *uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if userID != nil {
			return db.Where("recipes.public = ? OR recipes.user_id = ?", true, *userID)
		}
		return db.Where("recipes.public = ?", true)
	}
}

type IngredientInput struct {
	Amount string `json:"amount" binding:"max=20"`
	Item   string `json:"item" binding:"required,max=255"`
}

type StepInput struct {
	Text string `json:"text" binding:"required"`
}

type CreateRecipeInput struct {
	Title             string            `json:"title" binding:"required,max=255"`
	PrepTimeInMinutes *int              `json:"prep_time_in_minutes" binding:"omitempty,min=0"`
	CookTimeInMinutes *int              `json:"cook_time_in_minutes" binding:"omitempty,min=0"`
	Public            *bool             `json:"public"`
	TagNames          *string           `json:"tag_names"`
	Ingredients       []IngredientInput `json:"ingredients" binding:"omitempty,dive"`
	Steps             []StepInput       `json:"steps" binding:"omitempty,dive"`
}

// UpdateRecipeInput is a partial update: nil pointers mean "field omitted,
// leave as is". For Ingredients and Steps a non-nil empty slice means
// "delete all children of that kind".
type UpdateRecipeInput struct {
	Title             *string            `json:"title" binding:"omitempty,max=255"`
	PrepTimeInMinutes *int               `json:"prep_time_in_minutes" binding:"omitempty,min=0"`
	CookTimeInMinutes *int               `json:"cook_time_in_minutes" binding:"omitempty,min=0"`
	Public            *bool              `json:"public"`
	TagNames          *string            `json:"tag_names"`
	Ingredients       *[]IngredientInput `json:"ingredients" binding:"omitempty,dive"`
	Steps             *[]StepInput       `json:"steps" binding:"omitempty,dive"`
}

// AnnotatedRecipe carries the read-only derived counts list views show.
type AnnotatedRecipe struct {
	models.Recipe
	TimesFavorited int64 `json:"times_favorited"`
	TimesPlanned   int64 `json:"times_planned"`
}

// RecipeStats are the derived projections for a detail view.
type RecipeStats struct {
	IngredientCount int64      `json:"num_ingredients"`
	TimesPlanned    int64      `json:"times_planned"`
	FirstPlanned    *time.Time `json:"first_planned"`
	TimesFavorited  int64      `json:"times_favorited"`
}

func preloadChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Ingredients").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_steps.sort_order ASC")
		}).
		Preload("Tags").
		Preload("User")
}

// ListRecipes returns the recipes visible to the viewer ordered by title
// (ties broken by id). A non-empty query narrows the set to recipes
// matching the search term in any indexed field.
func (s *RecipeService) ListRecipes(ctx context.Context, viewer *uuid.UUID, query string) ([]AnnotatedRecipe, error) {
	tx := s.db.WithContext(ctx)
	if q := strings.TrimSpace(query); q != "" {
		tx = tx.Where("recipes.id IN (?)", s.searchSubquery(q))
	}
	return s.list(tx, viewer)
}

// searchSubquery selects the distinct ids of recipes matching the term in
// title, ingredient item, step text, tag name, or owner username. The
// joins fan out one row per child, so the select is distinct by recipe id.
func (s *RecipeService) searchSubquery(query string) *gorm.DB {
	like := "%" + strings.ToLower(query) + "%"
	return s.db.Model(&models.Recipe{}).
		Distinct("recipes.id").
		Joins("JOIN users ON users.id = recipes.user_id").
		Joins("LEFT JOIN ingredients ON ingredients.recipe_id = recipes.id").
		Joins("LEFT JOIN recipe_steps ON recipe_steps.recipe_id = recipes.id").
		Joins("LEFT JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
		Joins("LEFT JOIN tags ON tags.id = recipe_tags.tag_id").
		Where(
			"LOWER(recipes.title) LIKE ? OR LOWER(ingredients.item) LIKE ? OR LOWER(recipe_steps.text) LIKE ? OR LOWER(tags.tag) LIKE ? OR LOWER(users.username) LIKE ?",
			like, like, like, like, like,
		)
}

func (s *RecipeService) list(tx *gorm.DB, viewer *uuid.UUID) ([]AnnotatedRecipe, error) {
	var recipes []models.Recipe
	err := preloadChildren(tx.Model(&models.Recipe{})).
		Scopes(VisibleTo(viewer)).
		Order("recipes.title ASC, recipes.id ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return s.annotate(tx.Session(&gorm.Session{NewDB: true}), recipes)
}

type recipeCount struct {
	RecipeID uuid.UUID
	N        int64
}

func (s *RecipeService) annotate(tx *gorm.DB, recipes []models.Recipe) ([]AnnotatedRecipe, error) {
	annotated := make([]AnnotatedRecipe, len(recipes))
	for i := range recipes {
		annotated[i].Recipe = recipes[i]
	}
	if len(recipes) == 0 {
		return annotated, nil
	}

	ids := make([]uuid.UUID, len(recipes))
	index := make(map[uuid.UUID]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		index[r.ID] = i
	}

	var favorites []recipeCount
	err := tx.Table("recipe_favorites").
		Select("recipe_id, COUNT(DISTINCT user_id) AS n").
		Where("recipe_id IN ?", ids).
		Group("recipe_id").
		Find(&favorites).Error
	if err != nil {
		return nil, err
	}
	for _, c := range favorites {
		annotated[index[c.RecipeID]].TimesFavorited = c.N
	}

	var planned []recipeCount
	err = tx.Table("meal_plan_recipes").
		Select("recipe_id, COUNT(DISTINCT meal_plan_id) AS n").
		Where("recipe_id IN ?", ids).
		Group("recipe_id").
		Find(&planned).Error
	if err != nil {
		return nil, err
	}
	for _, c := range planned {
		annotated[index[c.RecipeID]].TimesPlanned = c.N
	}

	return annotated, nil
}

// GetRecipe fetches one visible recipe with its children and derived stats.
func (s *RecipeService) GetRecipe(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*models.Recipe, *RecipeStats, error) {
	tx := s.db.WithContext(ctx)

	var recipe models.Recipe
	err := preloadChildren(tx).
		Scopes(VisibleTo(viewer)).
		First(&recipe, "recipes.id = ?", id).Error
	if err != nil {
		return nil, nil, err
	}

	stats, err := s.recipeStats(tx, recipe.ID)
	if err != nil {
		return nil, nil, err
	}
	stats.IngredientCount = int64(len(recipe.Ingredients))
	return &recipe, stats, nil
}

func (s *RecipeService) recipeStats(tx *gorm.DB, id uuid.UUID) (*RecipeStats, error) {
	stats := &RecipeStats{}

	err := tx.Table("meal_plan_recipes").
		Where("recipe_id = ?", id).
		Distinct("meal_plan_id").
		Count(&stats.TimesPlanned).Error
	if err != nil {
		return nil, err
	}

	if stats.TimesPlanned > 0 {
		var first models.MealPlan
		err = tx.Model(&models.MealPlan{}).
			Joins("JOIN meal_plan_recipes ON meal_plan_recipes.meal_plan_id = meal_plans.id").
			Where("meal_plan_recipes.recipe_id = ?", id).
			Order("meal_plans.date ASC").
			First(&first).Error
		if err != nil {
			return nil, err
		}
		date := time.Time(first.Date)
		stats.FirstPlanned = &date
	}

	err = tx.Table("recipe_favorites").
		Where("recipe_id = ?", id).
		Distinct("user_id").
		Count(&stats.TimesFavorited).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// RandomRecipe picks one random recipe from the viewer's visible set.
func (s *RecipeService) RandomRecipe(ctx context.Context, viewer *uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := preloadChildren(s.db.WithContext(ctx)).
		Scopes(VisibleTo(viewer)).
		Order("RANDOM()").
		First(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// CreateRecipe persists a recipe owned by userID together with its
// ingredients, steps (numbered 1..n in payload order), and tags, in one
// transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID uuid.UUID, in CreateRecipeInput) (*models.Recipe, error) {
	recipe := &models.Recipe{
		Title:             in.Title,
		PrepTimeInMinutes: in.PrepTimeInMinutes,
		CookTimeInMinutes: in.CookTimeInMinutes,
		Public:            true,
		UserID:            userID,
	}
	if in.Public != nil {
		recipe.Public = *in.Public
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if err := createIngredients(tx, recipe.ID, in.Ingredients); err != nil {
			return err
		}
		if err := createSteps(tx, recipe.ID, in.Steps); err != nil {
			return err
		}
		if in.TagNames != nil {
			if err := setTagNames(tx, recipe, *in.TagNames); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, recipe.ID)
}

// UpdateRecipe applies a partial update to a recipe owned by ownerID. A
// present ingredients or steps payload replaces all existing children of
// that kind; an absent one leaves them untouched.
func (s *RecipeService) UpdateRecipe(ctx context.Context, ownerID, id uuid.UUID, in UpdateRecipeInput) (*models.Recipe, error) {
	recipe, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.PrepTimeInMinutes != nil {
			updates["prep_time_in_minutes"] = *in.PrepTimeInMinutes
		}
		if in.CookTimeInMinutes != nil {
			updates["cook_time_in_minutes"] = *in.CookTimeInMinutes
		}
		if in.Public != nil {
			updates["public"] = *in.Public
		}
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Ingredient{}).Error; err != nil {
				return err
			}
			if err := createIngredients(tx, recipe.ID, *in.Ingredients); err != nil {
				return err
			}
		}
		if in.Steps != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeStep{}).Error; err != nil {
				return err
			}
			if err := createSteps(tx, recipe.ID, *in.Steps); err != nil {
				return err
			}
		}
		if in.TagNames != nil {
			if err := setTagNames(tx, recipe, *in.TagNames); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, recipe.ID)
}

// DeleteRecipe removes a recipe owned by ownerID. Ingredients and steps
// are deleted with it; tag, favorite, and meal-plan links are detached
// while the tag and plan rows persist; copies keep existing but lose
// their provenance pointer.
func (s *RecipeService) DeleteRecipe(ctx context.Context, ownerID, id uuid.UUID) error {
	recipe, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, assoc := range []string{"Tags", "FavoritedBy", "MealPlans"} {
			if err := tx.Model(recipe).Association(assoc).Clear(); err != nil {
				return err
			}
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeStep{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Recipe{}).
			Where("original_recipe_id = ?", recipe.ID).
			Update("original_recipe_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
}

// SetImageURL points a recipe owned by ownerID at an uploaded image.
func (s *RecipeService) SetImageURL(ctx context.Context, ownerID, id uuid.UUID, url string) (*models.Recipe, error) {
	recipe, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(recipe).Update("image_url", url).Error; err != nil {
		return nil, err
	}
	return s.reload(ctx, recipe.ID)
}

// DuplicateRecipe deep-copies a recipe visible to userID: same times, a
// " (Copy)" title suffix, provenance pointing at the source, every
// ingredient and step copied in order, and the same tag set. All or
// nothing.
func (s *RecipeService) DuplicateRecipe(ctx context.Context, userID, id uuid.UUID) (*models.Recipe, error) {
	var src models.Recipe
	err := preloadChildren(s.db.WithContext(ctx)).
		Scopes(VisibleTo(&userID)).
		First(&src, "recipes.id = ?", id).Error
	if err != nil {
		return nil, err
	}

	clone := &models.Recipe{
		Title:             src.Title + " (Copy)",
		PrepTimeInMinutes: src.PrepTimeInMinutes,
		CookTimeInMinutes: src.CookTimeInMinutes,
		UserID:            userID,
		OriginalRecipeID:  &src.ID,
		Public:            true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(clone).Error; err != nil {
			return err
		}
		for _, ing := range src.Ingredients {
			copied := models.Ingredient{RecipeID: clone.ID, Amount: ing.Amount, Item: ing.Item}
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
		}
		for i, step := range src.Steps {
			copied := models.RecipeStep{RecipeID: clone.ID, Text: step.Text, SortOrder: i + 1}
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
		}
		if len(src.Tags) > 0 {
			if err := tx.Model(clone).Association("Tags").Append(&src.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, clone.ID)
}

// ToggleFavorite flips the favorite marker between userID and a recipe
// visible to them, returning the new state.
func (s *RecipeService) ToggleFavorite(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tx := s.db.WithContext(ctx)

	var recipe models.Recipe
	err := tx.Scopes(VisibleTo(&userID)).First(&recipe, "recipes.id = ?", id).Error
	if err != nil {
		return false, err
	}

	favorited, err := s.IsFavorite(ctx, userID, recipe.ID)
	if err != nil {
		return false, err
	}

	if favorited {
		err = tx.Model(&recipe).Association("FavoritedBy").Delete(&models.User{ID: userID})
		return false, err
	}
	err = tx.Model(&recipe).Association("FavoritedBy").Append(&models.User{ID: userID})
	return true, err
}

func (s *RecipeService) IsFavorite(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("recipe_favorites").
		Where("recipe_id = ? AND user_id = ?", id, userID).
		Count(&n).Error
	return n > 0, err
}

// RecipesForTag resolves a tag by exact name and returns the visible
// recipes carrying it.
func (s *RecipeService) RecipesForTag(ctx context.Context, viewer *uuid.UUID, name string) (*models.Tag, []AnnotatedRecipe, error) {
	tx := s.db.WithContext(ctx)

	var tag models.Tag
	if err := tx.First(&tag, "tag = ?", name).Error; err != nil {
		return nil, nil, err
	}

	recipes, err := s.list(
		tx.Where("recipes.id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id = ?)", tag.ID),
		viewer,
	)
	if err != nil {
		return nil, nil, err
	}
	return &tag, recipes, nil
}

// PublicRecipesByUsername returns the public recipes owned by the named
// user, or gorm.ErrRecordNotFound when the username is unknown.
func (s *RecipeService) PublicRecipesByUsername(ctx context.Context, username string) (*models.User, []AnnotatedRecipe, error) {
	tx := s.db.WithContext(ctx)

	var user models.User
	if err := tx.First(&user, "username = ?", username).Error; err != nil {
		return nil, nil, err
	}

	recipes, err := s.list(tx.Where("recipes.user_id = ?", user.ID), nil)
	if err != nil {
		return nil, nil, err
	}
	return &user, recipes, nil
}

// getOwned resolves a recipe by id scoped to its owner. A miss, including
// someone else's recipe, is a plain record-not-found.
func (s *RecipeService) getOwned(ctx context.Context, ownerID, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Where("recipes.user_id = ?", ownerID).
		First(&recipe, "recipes.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) reload(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := preloadChildren(s.db.WithContext(ctx)).First(&recipe, "recipes.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func createIngredients(tx *gorm.DB, recipeID uuid.UUID, in []IngredientInput) error {
	for _, ing := range in {
		row := models.Ingredient{RecipeID: recipeID, Amount: ing.Amount, Item: ing.Item}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func createSteps(tx *gorm.DB, recipeID uuid.UUID, in []StepInput) error {
	for i, step := range in {
		row := models.RecipeStep{RecipeID: recipeID, Text: step.Text, SortOrder: i + 1}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// setTagNames splits a whitespace-separated string of tag names, upserts
// each tag, and replaces the recipe's tag set with exactly that set.
func setTagNames(tx *gorm.DB, recipe *models.Recipe, names string) error {
	seen := map[string]bool{}
	tags := []models.Tag{}
	for _, name := range strings.Fields(names) {
		if seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		if err := tx.Where("tag = ?", name).FirstOrCreate(&tag, models.Tag{Tag: name}).Error; err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return tx.Model(recipe).Association("Tags").Replace(&tags)
}
