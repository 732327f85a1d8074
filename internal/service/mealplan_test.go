package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/models"
	"github.com/recipebox/backend/internal/testhelpers"
)

func dateOf(t *testing.T, s string) datatypes.Date {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return datatypes.Date(parsed)
}

func TestGetOrCreatePlan(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := NewMealPlanService(db)
	ctx := context.Background()

	user := createUser(t, db, "tara")
	day := dateOf(t, "2026-04-10")

	first, err := svc.GetOrCreatePlan(ctx, user.ID, day)
	require.NoError(t, err)

	second, err := svc.GetOrCreatePlan(ctx, user.ID, day)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var n int64
	db.Model(&models.MealPlan{}).Where("user_id = ?", user.ID).Count(&n)
	assert.Equal(t, int64(1), n)

	t.Run("different day, different plan", func(t *testing.T) {
		other, err := svc.GetOrCreatePlan(ctx, user.ID, dateOf(t, "2026-04-11"))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
	})

	t.Run("different user, different plan", func(t *testing.T) {
		stranger := createUser(t, db, "uma")
		other, err := svc.GetOrCreatePlan(ctx, stranger.ID, day)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
	})
}

func TestMealPlanAddRemove(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	recipes := NewRecipeService(db)
	svc := NewMealPlanService(db)
	ctx := context.Background()

	user := createUser(t, db, "vic")
	other := createUser(t, db, "wes")
	day := dateOf(t, "2026-04-12")

	dish := seedRecipe(t, recipes, other.ID, CreateRecipeInput{Title: "Paella"})

	require.NoError(t, svc.AddRecipe(ctx, user.ID, day, dish.ID))

	t.Run("adding twice keeps one link", func(t *testing.T) {
		require.NoError(t, svc.AddRecipe(ctx, user.ID, day, dish.ID))

		plan, _, err := svc.PlanForDay(ctx, user.ID, day)
		require.NoError(t, err)
		assert.Len(t, plan.Recipes, 1)
	})

	t.Run("invisible recipe cannot be planned", func(t *testing.T) {
		hidden := seedRecipe(t, recipes, other.ID, CreateRecipeInput{Title: "Chef's Secret", Public: boolPtr(false)})
		err := svc.AddRecipe(ctx, user.ID, day, hidden.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("remove detaches without deleting the recipe", func(t *testing.T) {
		require.NoError(t, svc.RemoveRecipe(ctx, user.ID, day, dish.ID))

		plan, _, err := svc.PlanForDay(ctx, user.ID, day)
		require.NoError(t, err)
		assert.Empty(t, plan.Recipes)

		var survivor models.Recipe
		assert.NoError(t, db.First(&survivor, "id = ?", dish.ID).Error)
	})

	t.Run("removing an absent recipe is a no-op", func(t *testing.T) {
		assert.NoError(t, svc.RemoveRecipe(ctx, user.ID, day, dish.ID))
	})

	t.Run("removing from a day with no plan is a no-op", func(t *testing.T) {
		assert.NoError(t, svc.RemoveRecipe(ctx, user.ID, dateOf(t, "1999-01-01"), dish.ID))
	})
}

func TestPlanForDayCandidates(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	recipes := NewRecipeService(db)
	svc := NewMealPlanService(db)
	ctx := context.Background()

	user := createUser(t, db, "xena")
	other := createUser(t, db, "yuri")
	day := dateOf(t, "2026-04-13")

	planned := seedRecipe(t, recipes, user.ID, CreateRecipeInput{Title: "Gnocchi"})
	seedRecipe(t, recipes, user.ID, CreateRecipeInput{Title: "Risotto"})
	seedRecipe(t, recipes, user.ID, CreateRecipeInput{Title: "Test Kitchen", Public: boolPtr(false)})
	seedRecipe(t, recipes, other.ID, CreateRecipeInput{Title: "Off Limits", Public: boolPtr(false)})

	require.NoError(t, svc.AddRecipe(ctx, user.ID, day, planned.ID))

	plan, candidates, err := svc.PlanForDay(ctx, user.ID, day)
	require.NoError(t, err)

	require.Len(t, plan.Recipes, 1)
	assert.Equal(t, "Gnocchi", plan.Recipes[0].Title)

	titles := make([]string, 0, len(candidates))
	for _, r := range candidates {
		titles = append(titles, r.Title)
	}
	// visible set minus what is already planned; other users' private
	// recipes never appear
	assert.ElementsMatch(t, []string{"Risotto", "Test Kitchen"}, titles)
}
