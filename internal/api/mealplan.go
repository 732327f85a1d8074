package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/middleware"
	"github.com/recipebox/backend/internal/models"
	"github.com/recipebox/backend/internal/service"
)

const dateLayout = "2006-01-02"

// MealPlanHandler exposes the per-day meal plan. Every route requires a
// principal; plans are strictly private to their owner.
type MealPlanHandler struct {
	mealPlanService *service.MealPlanService
	authService     *service.AuthService
}

func NewMealPlanHandler(mealPlanService *service.MealPlanService, authService *service.AuthService) *MealPlanHandler {
	return &MealPlanHandler{mealPlanService: mealPlanService, authService: authService}
}

func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plans := router.Group("/mealplans", middleware.AuthMiddleware(h.authService))
	plans.GET("", h.ShowToday)
	plans.GET("/:date", h.ShowDay)
	plans.POST("/:date/recipes", h.AddRecipe)
	plans.DELETE("/:date/recipes/:recipe_id", h.RemoveRecipe)
}

func parseDateParam(c *gin.Context) (datatypes.Date, bool) {
	t, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return datatypes.Date{}, false
	}
	return datatypes.Date(t), true
}

func (h *MealPlanHandler) ShowToday(c *gin.Context) {
	h.showDay(c, datatypes.Date(time.Now()))
}

func (h *MealPlanHandler) ShowDay(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}
	h.showDay(c, date)
}

func (h *MealPlanHandler) showDay(c *gin.Context, date datatypes.Date) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	plan, candidates, err := h.mealPlanService.PlanForDay(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load meal plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":       time.Time(plan.Date).Format(dateLayout),
		"recipes":    recipeResponses(plan.Recipes),
		"candidates": recipeResponses(candidates),
	})
}

func recipeResponses(recipes []models.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, newRecipeResponse(&recipes[i]))
	}
	return out
}

type addPlanRecipeRequest struct {
	RecipeID uuid.UUID `json:"recipe_id" binding:"required"`
}

// AddRecipe puts a recipe the user can see onto the day's plan. Adding a
// recipe that is already planned for that day changes nothing.
func (h *MealPlanHandler) AddRecipe(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	var req addPlanRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.mealPlanService.AddRecipe(c.Request.Context(), userID, date, req.RecipeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update meal plan"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveRecipe takes a recipe off the day's plan. Removing a recipe that
// is not on the plan succeeds without effect.
func (h *MealPlanHandler) RemoveRecipe(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		return
	}
	recipeID, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	if err := h.mealPlanService.RemoveRecipe(c.Request.Context(), userID, date, recipeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update meal plan"})
		return
	}
	c.Status(http.StatusNoContent)
}
