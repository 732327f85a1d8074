package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/middleware"
	"github.com/recipebox/backend/internal/service"
)

type TagHandler struct {
	recipeService *service.RecipeService
	authService   *service.AuthService
}

func NewTagHandler(recipeService *service.RecipeService, authService *service.AuthService) *TagHandler {
	return &TagHandler{recipeService: recipeService, authService: authService}
}

func (h *TagHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuthMiddleware(h.authService)
	router.GET("/tags/:name", optional, h.RecipesForTag)
}

// RecipesForTag lists the viewer-visible recipes carrying the named tag.
// An unknown tag is a 404; a known tag with nothing visible is an empty
// list.
func (h *TagHandler) RecipesForTag(c *gin.Context) {
	tag, recipes, err := h.recipeService.RecipesForTag(c.Request.Context(), currentUserID(c), c.Param("name"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tag":     tag.Tag,
		"recipes": newRecipeList(recipes),
	})
}
