package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/middleware"
	"github.com/recipebox/backend/internal/service"
)

const maxImageBytes = 5 << 20

// RecipeHandler exposes recipe reads, mutations, copies, favorites, and
// image upload. Read routes take an optional principal; mutating routes
// require one. imageService and rateLimiter may be nil when S3 or Redis
// is not configured.
type RecipeHandler struct {
	recipeService *service.RecipeService
	authService   *service.AuthService
	imageService  *service.ImageService
	rateLimiter   *middleware.RateLimiter
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	authService *service.AuthService,
	imageService *service.ImageService,
	rateLimiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		authService:   authService,
		imageService:  imageService,
		rateLimiter:   rateLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuthMiddleware(h.authService)
	required := middleware.AuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	recipes.GET("", optional, h.ListRecipes)
	recipes.GET("/random", optional, h.RandomRecipe)
	recipes.GET("/:id", optional, h.GetRecipe)

	create := []gin.HandlerFunc{required}
	if h.rateLimiter != nil {
		create = append(create, h.rateLimiter.RateLimitMiddleware())
	}
	recipes.POST("", append(create, h.CreateRecipe)...)

	recipes.PUT("/:id", required, h.UpdateRecipe)
	recipes.DELETE("/:id", required, h.DeleteRecipe)
	recipes.POST("/:id/copy", required, h.CopyRecipe)
	recipes.POST("/:id/favorite", required, h.ToggleFavorite)
	recipes.POST("/:id/image", required, h.UploadImage)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), currentUserID(c), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": newRecipeList(recipes)})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	viewer := currentUserID(c)
	recipe, stats, err := h.recipeService.GetRecipe(c.Request.Context(), viewer, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get recipe"})
		return
	}

	resp := gin.H{
		"recipe": newRecipeResponse(recipe),
		"stats":  stats,
	}
	if viewer != nil {
		favorite, err := h.recipeService.IsFavorite(c.Request.Context(), *viewer, recipe.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get recipe"})
			return
		}
		resp["is_favorite"] = favorite
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) RandomRecipe(c *gin.Context) {
	recipe, err := h.recipeService.RandomRecipe(c.Request.Context(), currentUserID(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recipes available"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to pick a recipe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": newRecipeResponse(recipe)})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var in service.CreateRecipeInput
	if !bindJSON(c, &in) {
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recipe"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": newRecipeResponse(recipe)})
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var in service.UpdateRecipeInput
	if !bindJSON(c, &in) {
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), userID, id, in)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recipe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": newRecipeResponse(recipe)})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.recipeService.DeleteRecipe(c.Request.Context(), userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete recipe"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) CopyRecipe(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.DuplicateRecipe(c.Request.Context(), userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to copy recipe"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": newRecipeResponse(recipe)})
}

func (h *RecipeHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	favorite, err := h.recipeService.ToggleFavorite(c.Request.Context(), userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

func (h *RecipeHandler) UploadImage(c *gin.Context) {
	if h.imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds 5MB limit"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	url, err := h.imageService.UploadRecipeImage(c.Request.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload image"})
		return
	}

	recipe, err := h.recipeService.SetImageURL(c.Request.Context(), userID, id, url)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": newRecipeResponse(recipe)})
}
