package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/types"
	"gorm.io/gorm"
)

// ErrRecipeNotFound is returned when no recipe has the requested ID.
var ErrRecipeNotFound = errors.New("recipe not found")

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// withIngredients preloads ingredients in insertion order.
func withIngredients(db *gorm.DB) *gorm.DB {
	return db.Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
		return db.Order("ingredients.id ASC")
	})
}

// ListRecipes returns every recipe ordered by ID. A non-empty name keeps only
// recipes whose name contains it, ignoring case.
func (s *RecipeService) ListRecipes(ctx context.Context, name string) ([]*model.Recipe, error) {
	var recipes []*model.Recipe

	query := withIngredients(s.db.WithContext(ctx))
	if name != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(name)) + "%"
		query = query.Where(`LOWER(recipes.name) LIKE ? ESCAPE '\'`, like)
	}

	if err := query.Order("recipes.id ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uint) (*model.Recipe, error) {
	return getRecipe(withIngredients(s.db.WithContext(ctx)), id)
}

func getRecipe(db *gorm.DB, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := db.First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// CreateRecipe writes the recipe and then its ingredients in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, req *types.CreateRecipeRequest) (*model.Recipe, error) {
	recipe := &model.Recipe{
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		ingredients, err := insertIngredients(tx, recipe.ID, types.IngredientNames(req.Ingredients))
		if err != nil {
			return err
		}
		recipe.Ingredients = ingredients
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateRecipe applies the non-nil fields of req. When req.Ingredients is set
// the existing ingredients are deleted and the new list inserted in their
// place.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id uint, req *types.UpdateRecipeRequest) (*model.Recipe, error) {
	var recipe *model.Recipe

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		recipe, err = getRecipe(withIngredients(tx), id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
			recipe.Name = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
			recipe.Description = *req.Description
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("update recipe %d: %w", id, err)
			}
		}

		if req.Ingredients == nil {
			return nil
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
			return fmt.Errorf("clear ingredients of recipe %d: %w", id, err)
		}
		recipe.Ingredients, err = insertIngredients(tx, id, types.IngredientNames(*req.Ingredients))
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// DeleteRecipe removes a recipe together with its ingredients.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getRecipe(tx, id); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
			return fmt.Errorf("delete ingredients of recipe %d: %w", id, err)
		}
		if err := tx.Delete(&model.Recipe{}, id).Error; err != nil {
			return fmt.Errorf("delete recipe %d: %w", id, err)
		}
		return nil
	})
}

// CountRecipes returns the number of stored recipes.
func (s *RecipeService) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return count, nil
}

// insertIngredients bulk-inserts names for recipeID. A single multi-row
// insert assigns IDs in slice order, which fixes the read order.
func insertIngredients(tx *gorm.DB, recipeID uint, names []string) ([]model.Ingredient, error) {
	ingredients := make([]model.Ingredient, len(names))
	for i, name := range names {
		ingredients[i] = model.Ingredient{Name: name, RecipeID: recipeID}
	}
	if len(ingredients) == 0 {
		return ingredients, nil
	}
	if err := tx.Create(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("create ingredients of recipe %d: %w", recipeID, err)
	}
	return ingredients, nil
}
