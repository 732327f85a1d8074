package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Recipe struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	PrepTimeInMinutes *int       `json:"prep_time_in_minutes"`
	CookTimeInMinutes *int       `json:"cook_time_in_minutes"`
	Public            bool       `gorm:"not null;default:true" json:"public"`
	ImageURL          string     `gorm:"size:255" json:"image_url"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User              *User      `json:"-"`
	OriginalRecipeID  *uuid.UUID `gorm:"type:uuid" json:"original_recipe_id"`

	Ingredients []Ingredient `gorm:"foreignKey:RecipeID" json:"-"`
	Steps       []RecipeStep `gorm:"foreignKey:RecipeID" json:"-"`
	Tags        []Tag        `gorm:"many2many:recipe_tags" json:"-"`
	FavoritedBy []User       `gorm:"many2many:recipe_favorites" json:"-"`
	MealPlans   []MealPlan   `gorm:"many2many:meal_plan_recipes" json:"-"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TotalTimeInMinutes is nil unless both prep and cook times are set.
func (r *Recipe) TotalTimeInMinutes() *int {
	if r.PrepTimeInMinutes == nil || r.CookTimeInMinutes == nil {
		return nil
	}
	total := *r.PrepTimeInMinutes + *r.CookTimeInMinutes
	return &total
}

// TagNames returns the recipe's tag names as a space-separated string,
// the same format SetTagNames on the service accepts.
func (r *Recipe) TagNames() string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Tag)
	}
	return strings.Join(names, " ")
}

type Ingredient struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Amount   string    `gorm:"size:20" json:"amount"`
	Item     string    `gorm:"size:255;not null" json:"item"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// RecipeStep is an ordered instruction within a recipe. SortOrder is
// 1-based and kept contiguous per recipe by the mutation paths; "order"
// is a reserved word in SQL, hence the column name.
type RecipeStep struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	SortOrder int       `gorm:"column:sort_order;not null" json:"order"`
}

func (s *RecipeStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
