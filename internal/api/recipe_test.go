package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/mocks"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
	"github.com/pageza/recipebox/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRecipeTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testhelpers.SetupTestDatabase(t)
	return newTestRouter(service.NewRecipeService(db)), db
}

func newTestRouter(svc service.IRecipeService) *gin.Engine {
	router := gin.New()
	NewRecipeHandler(svc).RegisterRoutes(&router.RouterGroup)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func recipeCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Recipe{}).Count(&count).Error)
	return count
}

func decodeRecipe(t *testing.T, w *httptest.ResponseRecorder) types.RecipeResponse {
	t.Helper()
	var resp types.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateRecipe(t *testing.T) {
	router, db := setupRecipeTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/recipes/",
		`{"name":"Omelette","description":"","ingredients":[{"name":"Egg"},{"name":"Milk"},{"name":"Butter"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeRecipe(t, w)
	assert.NotZero(t, created.ID)
	expected := fmt.Sprintf(
		`{"id":%d,"name":"Omelette","description":"","ingredients":[{"name":"Egg"},{"name":"Milk"},{"name":"Butter"}]}`,
		created.ID)
	assert.JSONEq(t, expected, w.Body.String())

	w = doRequest(t, router, http.MethodGet, fmt.Sprintf("/recipes/%d/", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, expected, w.Body.String())

	assert.Equal(t, []string{"Egg", "Milk", "Butter"}, testhelpers.IngredientNames(t, db, created.ID))
}

func TestCreateRecipeDefaults(t *testing.T) {
	router, _ := setupRecipeTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/recipes/", map[string]interface{}{"name": "Just an apple"})
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeRecipe(t, w)
	assert.Equal(t, "Just an apple", created.Name)
	assert.Equal(t, "", created.Description)
	assert.NotNil(t, created.Ingredients)
	assert.Empty(t, created.Ingredients)
	assert.Contains(t, w.Body.String(), `"ingredients":[]`)
}

func TestCreateRecipeIgnoresClientID(t *testing.T) {
	router, _ := setupRecipeTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/recipes/", `{"id":999,"name":"Garlic bread"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEqual(t, uint(999), decodeRecipe(t, w).ID)
}

func TestCreateRecipeValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		field  string
		errMsg string
	}{
		{
			name:   "missing name",
			body:   `{"description":"no name","ingredients":[{"name":"Bread"}]}`,
			status: http.StatusBadRequest,
			field:  "name",
			errMsg: msgValidationFailed,
		},
		{
			name:   "empty name",
			body:   `{"name":""}`,
			status: http.StatusBadRequest,
			field:  "name",
			errMsg: msgValidationFailed,
		},
		{
			name:   "ingredient without name",
			body:   `{"name":"Chilli dog","ingredients":[{"name":"Sausage"},{}]}`,
			status: http.StatusBadRequest,
			field:  "ingredients[1].name",
			errMsg: msgValidationFailed,
		},
		{
			name:   "name of wrong type",
			body:   `{"name":5}`,
			status: http.StatusBadRequest,
			field:  "name",
			errMsg: msgValidationFailed,
		},
		{
			name:   "malformed json",
			body:   `{"name":`,
			status: http.StatusBadRequest,
			errMsg: msgInvalidBody,
		},
		{
			name:   "empty body",
			body:   ``,
			status: http.StatusBadRequest,
			errMsg: msgInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, db := setupRecipeTestRouter(t)
			before := recipeCount(t, db)

			req := httptest.NewRequest(http.MethodPost, "/recipes/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.errMsg, resp.Error)
			if tt.field != "" {
				assert.Contains(t, resp.Fields, tt.field)
			}
			assert.Equal(t, before, recipeCount(t, db))
		})
	}
}

func TestListRecipes(t *testing.T) {
	router, db := setupRecipeTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/recipes/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	sandwich := testhelpers.CreateSampleRecipe(t, db, "Cheese sandwich", []string{"Bread", "Cheese"}, "")
	cheesecake := testhelpers.CreateSampleRecipe(t, db, "Lemon cheesecake", []string{"Lemon", "Cheese"}, "Zesty")
	testhelpers.CreateSampleRecipe(t, db, "Omelette", []string{"Egg"}, "")

	w = doRequest(t, router, http.MethodGet, "/recipes/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []types.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "Cheese sandwich", all[0].Name)
	assert.Equal(t, []types.IngredientData{{Name: "Bread"}, {Name: "Cheese"}}, all[0].Ingredients)

	w = doRequest(t, router, http.MethodGet, "/recipes/?name=CHEESE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var filtered []types.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	require.Len(t, filtered, 2)
	assert.Equal(t, sandwich.ID, filtered[0].ID)
	assert.Equal(t, cheesecake.ID, filtered[1].ID)
	assert.Equal(t, "Zesty", filtered[1].Description)
}

func TestListRecipesNoMatch(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	testhelpers.CreateSampleRecipe(t, db, "Garlic bread", []string{"Garlic", "Bread"}, "")

	for _, query := range []string{"pizza", "%25", "_"} {
		w := doRequest(t, router, http.MethodGet, "/recipes/?name="+query, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String(), "query %q", query)
	}
}

func TestGetRecipeNotFound(t *testing.T) {
	router, _ := setupRecipeTestRouter(t)

	for _, path := range []string{"/recipes/42/", "/recipes/abc/", "/recipes/0/", "/recipes/-1/"} {
		w := doRequest(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"recipe not found"}`, w.Body.String(), path)
	}
}

func TestPatchRecipeNameOnly(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	recipe := testhelpers.CreateSampleRecipe(t, db, "Bread sandwich", []string{"Bread"}, "Plain")

	w := doRequest(t, router, http.MethodPatch, fmt.Sprintf("/recipes/%d/", recipe.ID), `{"name":"Toast"}`)
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeRecipe(t, w)
	assert.Equal(t, recipe.ID, updated.ID)
	assert.Equal(t, "Toast", updated.Name)
	assert.Equal(t, "Plain", updated.Description)
	assert.Equal(t, []types.IngredientData{{Name: "Bread"}}, updated.Ingredients)
	assert.Equal(t, []string{"Bread"}, testhelpers.IngredientNames(t, db, recipe.ID))
}

func TestPatchRecipeReplacesIngredients(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	recipe := testhelpers.CreateSampleRecipe(t, db, "Pizza", []string{"Dough", "Cheese", "Tomato"}, "")

	w := doRequest(t, router, http.MethodPatch, fmt.Sprintf("/recipes/%d/", recipe.ID),
		`{"ingredients":[{"name":"Casa Tarradellas"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeRecipe(t, w)
	assert.Equal(t, "Pizza", updated.Name)
	assert.Equal(t, []types.IngredientData{{Name: "Casa Tarradellas"}}, updated.Ingredients)
	assert.Equal(t, []string{"Casa Tarradellas"}, testhelpers.IngredientNames(t, db, recipe.ID))

	w = doRequest(t, router, http.MethodGet, fmt.Sprintf("/recipes/%d/", recipe.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, updated, decodeRecipe(t, w))
}

func TestPatchRecipeClearsIngredients(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	recipe := testhelpers.CreateSampleRecipe(t, db, "Pizza", []string{"Dough"}, "")

	w := doRequest(t, router, http.MethodPatch, fmt.Sprintf("/recipes/%d/", recipe.ID), `{"ingredients":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeRecipe(t, w).Ingredients)
	assert.Empty(t, testhelpers.IngredientNames(t, db, recipe.ID))
}

func TestPatchRecipeInvalid(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	recipe := testhelpers.CreateSampleRecipe(t, db, "Pizza", []string{"Dough"}, "")
	path := fmt.Sprintf("/recipes/%d/", recipe.ID)

	w := doRequest(t, router, http.MethodPatch, path, `{"name":"","ingredients":[{"name":"Flour"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "name")

	w = doRequest(t, router, http.MethodPatch, path, `{"ingredients":[{"name":""}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "ingredients[0].name")

	// nothing changed
	assert.Equal(t, []string{"Dough"}, testhelpers.IngredientNames(t, db, recipe.ID))
	var stored model.Recipe
	require.NoError(t, db.First(&stored, recipe.ID).Error)
	assert.Equal(t, "Pizza", stored.Name)
}

func TestPatchRecipeNotFound(t *testing.T) {
	router, _ := setupRecipeTestRouter(t)

	w := doRequest(t, router, http.MethodPatch, "/recipes/42/", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutRecipe(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	recipe := testhelpers.CreateSampleRecipe(t, db, "Pizza", []string{"Dough", "Cheese"}, "Old")
	path := fmt.Sprintf("/recipes/%d/", recipe.ID)

	w := doRequest(t, router, http.MethodPut, path, `{"description":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "name")

	w = doRequest(t, router, http.MethodPut, path,
		`{"name":"Margherita","description":"New","ingredients":[{"name":"Dough"},{"name":"Basil"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(
		`{"id":%d,"name":"Margherita","description":"New","ingredients":[{"name":"Dough"},{"name":"Basil"}]}`,
		recipe.ID), w.Body.String())

	w = doRequest(t, router, http.MethodPut, "/recipes/42/", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRecipe(t *testing.T) {
	router, db := setupRecipeTestRouter(t)
	recipe := testhelpers.CreateSampleRecipe(t, db, "Pizza", []string{"Dough", "Cheese"}, "")
	other := testhelpers.CreateSampleRecipe(t, db, "Omelette", []string{"Egg"}, "")
	path := fmt.Sprintf("/recipes/%d/", recipe.ID)

	w := doRequest(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var orphans int64
	require.NoError(t, db.Model(&model.Ingredient{}).Where("recipe_id = ?", recipe.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
	assert.Equal(t, []string{"Egg"}, testhelpers.IngredientNames(t, db, other.ID))

	w = doRequest(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeHandlerServiceFailure(t *testing.T) {
	svc := new(mocks.MockRecipeService)
	svc.On("ListRecipes", mock.Anything, "").Return(nil, errors.New("connection refused"))
	svc.On("CreateRecipe", mock.Anything, mock.AnythingOfType("*types.CreateRecipeRequest")).
		Return(nil, errors.New("connection refused"))
	router := newTestRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/recipes/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/recipes/", `{"name":"Omelette"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	svc.AssertExpectations(t)
}

func TestPatchPassesOnlyPresentFields(t *testing.T) {
	svc := new(mocks.MockRecipeService)
	svc.On("UpdateRecipe", mock.Anything, uint(7), mock.MatchedBy(func(req *types.UpdateRecipeRequest) bool {
		return req.Name == nil && req.Description != nil && *req.Description == "Crispy" && req.Ingredients == nil
	})).Return(&model.Recipe{ID: 7, Name: "Garlic bread", Description: "Crispy"}, nil)
	router := newTestRouter(svc)

	w := doRequest(t, router, http.MethodPatch, "/recipes/7/", `{"description":"Crispy","ingredients":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"Garlic bread","description":"Crispy","ingredients":[]}`, w.Body.String())

	svc.AssertExpectations(t)
}

func TestListRecipesNonASCIIFilter(t *testing.T) {
	router, _ := setupRecipeTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/recipes/", `{"name":"ÉCLAIR au chocolat","ingredients":[{"name":"Choux pastry"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	for _, query := range []string{"%C3%A9clair", "%C3%89CLAIR"} {
		w = doRequest(t, router, http.MethodGet, "/recipes/?name="+query, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []types.RecipeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1, "query %q", query)
		assert.Equal(t, "ÉCLAIR au chocolat", got[0].Name)
	}
}
