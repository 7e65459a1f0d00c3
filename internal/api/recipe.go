package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/types"
)

// RecipeHandler serves the /recipes resource.
type RecipeHandler struct {
	recipeService service.IRecipeService
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(recipeService service.IRecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// RegisterRoutes mounts the recipe routes on router.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/", h.CreateRecipe)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PATCH("/:id/", h.UpdateRecipe)
		recipes.PUT("/:id/", h.ReplaceRecipe)
		recipes.DELETE("/:id/", h.DeleteRecipe)
	}
}

// ListRecipes returns every recipe, optionally filtered by ?name=.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeListResponse(recipes))
}

// GetRecipe returns one recipe by id.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeResponse(recipe))
}

// CreateRecipe stores a new recipe and its ingredients.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewRecipeResponse(recipe))
}

// UpdateRecipe handles PATCH. Only the keys present in the body change.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req types.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	h.applyUpdate(c, id, &req)
}

// ReplaceRecipe handles PUT, which must carry a name.
func (h *RecipeHandler) ReplaceRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req types.ReplaceRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	h.applyUpdate(c, id, req.AsUpdate())
}

func (h *RecipeHandler) applyUpdate(c *gin.Context, id uint, req *types.UpdateRecipeRequest) {
	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeResponse(recipe))
}

// DeleteRecipe removes a recipe and its ingredients.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrRecipeNotFound) {
		respondError(c, http.StatusNotFound, msgRecipeNotFound)
		return
	}

	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, msgInternal)
}

// recipeID parses the :id path parameter. An id that cannot name a stored
// recipe is answered with 404, the same as an unknown one.
func recipeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusNotFound, msgRecipeNotFound)
		return 0, false
	}
	return uint(id), true
}
