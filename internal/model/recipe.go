package model

import (
	"time"
)

// Recipe is a named dish that owns an ordered list of ingredients.
type Recipe struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time    `json:"-"`
	UpdatedAt   time.Time    `json:"-"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Ingredients []Ingredient `gorm:"foreignKey:RecipeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ingredients"`
}

// TableName specifies the table name for the Recipe model
func (Recipe) TableName() string {
	return "recipes"
}

// String returns the recipe name.
func (r Recipe) String() string {
	return r.Name
}

// Ingredient belongs to exactly one recipe. Ingredients are ordered by ID,
// which follows insertion order.
type Ingredient struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	Name     string `gorm:"type:text;not null" json:"name"`
	RecipeID uint   `gorm:"not null;index" json:"-"`
}

// TableName specifies the table name for the Ingredient model
func (Ingredient) TableName() string {
	return "ingredients"
}

// String returns the ingredient name.
func (i Ingredient) String() string {
	return i.Name
}

// IngredientNames returns the ingredient names in stored order.
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
