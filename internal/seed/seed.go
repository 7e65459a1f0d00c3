// Package seed loads a small set of example recipes into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/types"
)

// Sample is one example recipe.
type Sample struct {
	Name        string
	Description string
	Ingredients []string
}

// Samples are written in this order, so their IDs are predictable on a
// fresh database.
var Samples = []Sample{
	{Name: "Cheese sandwich", Ingredients: []string{"Bread", "Cheese"}},
	{Name: "Just an apple", Description: "Sometimes you do not need anything else", Ingredients: []string{"Apple"}},
	{Name: "Bread sandwich", Description: "Bread between bread", Ingredients: []string{"Bread", "Bread", "Bread"}},
	{Name: "Garlic bread", Ingredients: []string{"Bread", "Garlic", "Butter"}},
	{Name: "Chilli dog", Ingredients: []string{"Sausage", "Bun", "Chilli"}},
	{Name: "Lemon cheesecake", Ingredients: []string{"Lemon", "Cream cheese", "Biscuits", "Sugar"}},
	{Name: "Omelette", Ingredients: []string{"Egg", "Milk", "Butter"}},
}

// Run writes Samples when the store holds no recipes and returns how many
// were created. A store that already has data is left alone.
func Run(ctx context.Context, svc service.IRecipeService) (int, error) {
	count, err := svc.CountRecipes(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		slog.Info("recipes already present, skipping seed", "count", count)
		return 0, nil
	}

	for i, s := range Samples {
		req := &types.CreateRecipeRequest{
			Name:        s.Name,
			Description: s.Description,
			Ingredients: make([]types.IngredientData, len(s.Ingredients)),
		}
		for j, name := range s.Ingredients {
			req.Ingredients[j] = types.IngredientData{Name: name}
		}

		recipe, err := svc.CreateRecipe(ctx, req)
		if err != nil {
			return i, fmt.Errorf("seed %q: %w", s.Name, err)
		}
		slog.Debug("seeded recipe", "id", recipe.ID, "name", recipe.Name)
	}

	slog.Info("seeded recipes", "count", len(Samples))
	return len(Samples), nil
}
