package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recipebox/backend/internal/models"
	"github.com/recipebox/backend/internal/service"
)

// IngredientResponse is one ingredient line of a recipe.
type IngredientResponse struct {
	Amount string `json:"amount"`
	Item   string `json:"item"`
}

// StepResponse is one preparation step; Order starts at 1 and is
// contiguous within a recipe.
type StepResponse struct {
	Order int    `json:"order"`
	Text  string `json:"text"`
}

// RecipeResponse is the wire shape of a recipe. User carries the owner's
// username; TotalTimeInMinutes is null unless both component times are set.
type RecipeResponse struct {
	ID                 uuid.UUID            `json:"id"`
	Title              string               `json:"title"`
	PrepTimeInMinutes  *int                 `json:"prep_time_in_minutes"`
	CookTimeInMinutes  *int                 `json:"cook_time_in_minutes"`
	TotalTimeInMinutes *int                 `json:"total_time_in_minutes"`
	Public             bool                 `json:"public"`
	User               string               `json:"user"`
	ImageURL           string               `json:"image_url,omitempty"`
	OriginalRecipeID   *uuid.UUID           `json:"original_recipe_id,omitempty"`
	Tags               []string             `json:"tags"`
	Ingredients        []IngredientResponse `json:"ingredients"`
	Steps              []StepResponse       `json:"steps"`
}

// RecipeListItem adds the derived counts list views expose.
type RecipeListItem struct {
	RecipeResponse
	TimesFavorited int64 `json:"times_favorited"`
	TimesPlanned   int64 `json:"times_planned"`
}

func newRecipeResponse(r *models.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:                 r.ID,
		Title:              r.Title,
		PrepTimeInMinutes:  r.PrepTimeInMinutes,
		CookTimeInMinutes:  r.CookTimeInMinutes,
		TotalTimeInMinutes: r.TotalTimeInMinutes(),
		Public:             r.Public,
		ImageURL:           r.ImageURL,
		OriginalRecipeID:   r.OriginalRecipeID,
		Tags:               make([]string, 0, len(r.Tags)),
		Ingredients:        make([]IngredientResponse, 0, len(r.Ingredients)),
		Steps:              make([]StepResponse, 0, len(r.Steps)),
	}
	if r.User != nil {
		resp.User = r.User.Username
	}
	for _, t := range r.Tags {
		resp.Tags = append(resp.Tags, t.Tag)
	}
	for _, ing := range r.Ingredients {
		resp.Ingredients = append(resp.Ingredients, IngredientResponse{Amount: ing.Amount, Item: ing.Item})
	}
	for _, st := range r.Steps {
		resp.Steps = append(resp.Steps, StepResponse{Order: st.SortOrder, Text: st.Text})
	}
	return resp
}

func newRecipeList(recipes []service.AnnotatedRecipe) []RecipeListItem {
	items := make([]RecipeListItem, 0, len(recipes))
	for i := range recipes {
		items = append(items, RecipeListItem{
			RecipeResponse: newRecipeResponse(&recipes[i].Recipe),
			TimesFavorited: recipes[i].TimesFavorited,
			TimesPlanned:   recipes[i].TimesPlanned,
		})
	}
	return items
}

// currentUserID reads the principal set by the auth middleware, nil when
// the request is anonymous.
func currentUserID(c *gin.Context) *uuid.UUID {
	v, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

// mustUserID is for routes behind the required-auth middleware, where a
// missing principal means broken wiring rather than a client error.
func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	id := currentUserID(c)
	if id == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	return *id, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the request body and, on validation failure, writes a
// 400 with one entry per failing field.
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, gin.H{
				"field":   strings.ToLower(fe.Field()),
				"message": validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
