package types

import (
	"github.com/pageza/recipebox/backend/internal/model"
)

// IngredientData is the wire form of an ingredient. It carries neither an
// ID nor a reference back to its recipe.
type IngredientData struct {
	Name string `json:"name" binding:"required"`
}

// RecipeResponse is the wire form of a recipe.
type RecipeResponse struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Ingredients []IngredientData `json:"ingredients"`
}

// CreateRecipeRequest represents the request body for creating a recipe.
// Any id in the body is ignored.
type CreateRecipeRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Ingredients []IngredientData `json:"ingredients" binding:"omitempty,dive"`
}

// UpdateRecipeRequest represents a partial update. Nil fields are left
// unchanged; a non-nil Ingredients replaces the whole ingredient list.
type UpdateRecipeRequest struct {
	Name        *string           `json:"name" binding:"omitempty,min=1"`
	Description *string           `json:"description"`
	Ingredients *[]IngredientData `json:"ingredients" binding:"omitempty,dive"`
}

// ReplaceRecipeRequest is the PUT body. It must carry the name; the other
// fields behave as in UpdateRecipeRequest.
type ReplaceRecipeRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description *string           `json:"description"`
	Ingredients *[]IngredientData `json:"ingredients" binding:"omitempty,dive"`
}

// AsUpdate converts a full replacement into the partial update form.
func (r *ReplaceRecipeRequest) AsUpdate() *UpdateRecipeRequest {
	name := r.Name
	return &UpdateRecipeRequest{
		Name:        &name,
		Description: r.Description,
		Ingredients: r.Ingredients,
	}
}

// IngredientNames flattens the payload into names, keeping submission order.
func IngredientNames(items []IngredientData) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

// NewRecipeResponse maps a stored recipe to its wire form.
func NewRecipeResponse(recipe *model.Recipe) RecipeResponse {
	ingredients := make([]IngredientData, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		ingredients = append(ingredients, IngredientData{Name: ing.Name})
	}
	return RecipeResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Description: recipe.Description,
		Ingredients: ingredients,
	}
}

// NewRecipeListResponse maps stored recipes to their wire form. The result
// is never nil so an empty list encodes as [].
func NewRecipeListResponse(recipes []*model.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, NewRecipeResponse(r))
	}
	return out
}
