package service

import (
	"context"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/types"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ListRecipes(ctx context.Context, name string) ([]*model.Recipe, error)
	GetRecipe(ctx context.Context, id uint) (*model.Recipe, error)
	CreateRecipe(ctx context.Context, req *types.CreateRecipeRequest) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id uint, req *types.UpdateRecipeRequest) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id uint) error
	CountRecipes(ctx context.Context) (int64, error)
}

var _ IRecipeService = (*RecipeService)(nil)
