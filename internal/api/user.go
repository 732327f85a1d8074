package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/service"
)

type UserHandler struct {
	recipeService *service.RecipeService
}

func NewUserHandler(recipeService *service.RecipeService) *UserHandler {
	return &UserHandler{recipeService: recipeService}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users/:username/recipes", h.PublicRecipes)
}

// PublicRecipes lists the named user's public recipes. The set is the
// same for every caller, owner included, so the route takes no principal.
func (h *UserHandler) PublicRecipes(c *gin.Context) {
	user, recipes, err := h.recipeService.PublicRecipesByUsername(c.Request.Context(), c.Param("username"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"recipes":  newRecipeList(recipes),
	})
}
