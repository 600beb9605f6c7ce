package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/foodsnap-ai/backend/internal/database"
	"github.com/foodsnap-ai/backend/internal/models"
)

func newRecipeService(t *testing.T) (*RecipeService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return NewRecipeService(db, nil, nil), db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func savePayload(t *testing.T, req SaveRecipeRequest) string {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return string(data)
}

func TestSaveRecipe(t *testing.T) {
	svc, db := newRecipeService(t)
	user := createUser(t, db, "alice")
	ctx := context.Background()

	payload := savePayload(t, SaveRecipeRequest{
		DishName: "Tomato Soup",
		Recipe:   "1. Boil tomatoes.",
		IngredientsCalories: []IngredientCaloriesResponse{
			{Ingredient: "tomatoes", Calories: 18},
			{Ingredient: "water", Calories: 0},
		},
		EstimatedWeightG:     500,
		TotalCaloriesPer100g: 40,
		Categories:           []string{"Low-Calorie", "Made-Up-Tag", "Vegan-ish"},
		Vegan:                true,
		Halal:                true,
	})

	recipe, err := svc.Save(ctx, user.ID, payload, "recipes/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("tomato-soup-%d", recipe.ID), recipe.Slug)

	got, err := svc.GetBySlug(ctx, recipe.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", got.DishName)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, "recipes/abc.jpg", got.ImagePath)
	assert.Len(t, got.Ingredients, 2)
	assert.True(t, got.IsVegan)
	// Names outside the fixed vocabulary are dropped.
	assert.Equal(t, []string{"Low-Calorie"}, got.Categories)
}

func TestSaveRecipeFallsBackToBareIngredients(t *testing.T) {
	svc, db := newRecipeService(t)
	user := createUser(t, db, "alice")

	payload := savePayload(t, SaveRecipeRequest{
		DishName:    "Toast",
		Recipe:      "1. Toast bread.",
		Ingredients: []string{"bread", "butter"},
	})

	recipe, err := svc.Save(context.Background(), user.ID, payload, "")
	require.NoError(t, err)

	got, err := svc.GetBySlug(context.Background(), recipe.Slug)
	require.NoError(t, err)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "bread", got.Ingredients[0].Ingredient)
	assert.Zero(t, got.Ingredients[0].Calories)
}

func TestSaveRecipeRejectsInvalidPayload(t *testing.T) {
	svc, db := newRecipeService(t)
	user := createUser(t, db, "alice")
	ctx := context.Background()

	_, err := svc.Save(ctx, user.ID, "not json", "")
	assert.ErrorIs(t, err, ErrInvalidRecipe)

	_, err = svc.Save(ctx, user.ID, `{"dish_name": "", "recipe": "x"}`, "")
	assert.ErrorIs(t, err, ErrInvalidRecipe)

	_, err = svc.Save(ctx, user.ID, `{"dish_name": "x", "recipe": ""}`, "")
	assert.ErrorIs(t, err, ErrInvalidRecipe)
}

func seedRecipes(t *testing.T, svc *RecipeService, db *gorm.DB, user *models.User, n int, published bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		payload := savePayload(t, SaveRecipeRequest{
			DishName: fmt.Sprintf("Dish %02d", i),
			Recipe:   "1. Cook.",
		})
		recipe, err := svc.Save(context.Background(), user.ID, payload, "")
		require.NoError(t, err)
		if published {
			require.NoError(t, db.Model(recipe).Update("is_published", true).Error)
		}
	}
}

func TestListPublicPagination(t *testing.T) {
	svc, db := newRecipeService(t)
	user := createUser(t, db, "alice")
	seedRecipes(t, svc, db, user, 25, true)
	seedRecipes(t, svc, db, user, 3, false)
	ctx := context.Background()

	page, err := svc.ListPublic(ctx, 2, 10, SortNewest)
	require.NoError(t, err)
	assert.Len(t, page.Recipes, 10)
	assert.EqualValues(t, 25, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)

	last, err := svc.ListPublic(ctx, 3, 10, SortNewest)
	require.NoError(t, err)
	assert.Len(t, last.Recipes, 5)

	beyond, err := svc.ListPublic(ctx, 9, 10, SortNewest)
	require.NoError(t, err)
	assert.Empty(t, beyond.Recipes)
	assert.Equal(t, 3, beyond.TotalPages)
}

func TestListSortOrders(t *testing.T) {
	svc, db := newRecipeService(t)
	user := createUser(t, db, "alice")
	for _, name := range []string{"Borscht", "Apple Pie", "Curry"} {
		payload := savePayload(t, SaveRecipeRequest{DishName: name, Recipe: "1. Cook."})
		_, err := svc.Save(context.Background(), user.ID, payload, "")
		require.NoError(t, err)
	}

	asc, err := svc.ListAll(context.Background(), 1, 10, SortNameAsc)
	require.NoError(t, err)
	require.Len(t, asc.Recipes, 3)
	assert.Equal(t, "Apple Pie", asc.Recipes[0].DishName)
	assert.Equal(t, "Curry", asc.Recipes[2].DishName)

	desc, err := svc.ListAll(context.Background(), 1, 10, SortNameDesc)
	require.NoError(t, err)
	assert.Equal(t, "Curry", desc.Recipes[0].DishName)
}

func TestNormalizePagination(t *testing.T) {
	page, size := NormalizePagination(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 1, size)

	page, size = NormalizePagination(-5, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, size)

	page, size = NormalizePagination(3, 25)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, size)
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortNewest, ParseSortOrder(""))
	assert.Equal(t, SortNewest, ParseSortOrder("bogus"))
	assert.Equal(t, SortOldest, ParseSortOrder("oldest"))
	assert.Equal(t, SortNameAsc, ParseSortOrder("name_asc"))
	assert.Equal(t, SortNameDesc, ParseSortOrder("name_desc"))
}

func TestPatchRecipe(t *testing.T) {
	svc, db := newRecipeService(t)
	owner := createUser(t, db, "alice")
	stranger := createUser(t, db, "bob")
	ctx := context.Background()

	payload := savePayload(t, SaveRecipeRequest{DishName: "Old Name", Recipe: "1. Cook."})
	recipe, err := svc.Save(ctx, owner.ID, payload, "")
	require.NoError(t, err)
	oldSlug := recipe.Slug

	newName := "New Name"
	publish := true

	_, err = svc.Patch(ctx, recipe.ID, stranger.ID, false, RecipePatch{DishName: &newName})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Patch(ctx, recipe.ID, owner.ID, false, RecipePatch{DishName: &newName, Publish: &publish})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.DishName)
	assert.Equal(t, fmt.Sprintf("new-name-%d", recipe.ID), updated.Slug)
	assert.True(t, updated.IsPublished)

	// The old slug no longer resolves.
	_, err = svc.GetBySlug(ctx, oldSlug)
	assert.ErrorIs(t, err, ErrNotFound)

	// Admins can patch recipes they do not own.
	_, err = svc.Patch(ctx, recipe.ID, stranger.ID, true, RecipePatch{Publish: &publish})
	require.NoError(t, err)

	_, err = svc.Patch(ctx, 9999, owner.ID, false, RecipePatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	svc, db := newRecipeService(t)
	owner := createUser(t, db, "alice")
	fan := createUser(t, db, "bob")
	ctx := context.Background()

	payload := savePayload(t, SaveRecipeRequest{
		DishName:            "Curry",
		Recipe:              "1. Cook.",
		IngredientsCalories: []IngredientCaloriesResponse{{Ingredient: "rice", Calories: 130}},
	})
	recipe, err := svc.Save(ctx, owner.ID, payload, "")
	require.NoError(t, err)
	require.NoError(t, svc.Favorite(ctx, fan.ID, recipe.ID))

	err = svc.Delete(ctx, recipe.ID, fan.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, recipe.ID, owner.ID, false))

	var ingredients int64
	db.Model(&models.IngredientCalories{}).Where("recipe_id = ?", recipe.ID).Count(&ingredients)
	assert.Zero(t, ingredients)

	var favorites int64
	db.Model(&models.FavoriteRecipe{}).Where("recipe_id = ?", recipe.ID).Count(&favorites)
	assert.Zero(t, favorites)

	assert.ErrorIs(t, svc.Delete(ctx, recipe.ID, owner.ID, false), ErrNotFound)
}

func TestFavoriteRules(t *testing.T) {
	svc, db := newRecipeService(t)
	owner := createUser(t, db, "alice")
	fan := createUser(t, db, "bob")
	ctx := context.Background()

	payload := savePayload(t, SaveRecipeRequest{DishName: "Pie", Recipe: "1. Bake."})
	recipe, err := svc.Save(ctx, owner.ID, payload, "")
	require.NoError(t, err)

	// Owners cannot favorite their own recipe.
	assert.ErrorIs(t, svc.Favorite(ctx, owner.ID, recipe.ID), ErrOwnRecipe)

	require.NoError(t, svc.Favorite(ctx, fan.ID, recipe.ID))
	assert.ErrorIs(t, svc.Favorite(ctx, fan.ID, recipe.ID), ErrAlreadyFavorited)

	favorited, err := svc.IsFavorited(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	assert.ErrorIs(t, svc.Favorite(ctx, fan.ID, 9999), ErrNotFound)

	require.NoError(t, svc.Unfavorite(ctx, fan.ID, recipe.ID))
	assert.ErrorIs(t, svc.Unfavorite(ctx, fan.ID, recipe.ID), ErrNotFound)

	favorited, err = svc.IsFavorited(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, favorited)
}

func TestListFavorites(t *testing.T) {
	svc, db := newRecipeService(t)
	owner := createUser(t, db, "alice")
	fan := createUser(t, db, "bob")
	ctx := context.Background()

	var recipeIDs []uint
	for i := 0; i < 3; i++ {
		payload := savePayload(t, SaveRecipeRequest{DishName: fmt.Sprintf("Dish %d", i), Recipe: "1. Cook."})
		recipe, err := svc.Save(ctx, owner.ID, payload, "")
		require.NoError(t, err)
		recipeIDs = append(recipeIDs, recipe.ID)
	}

	require.NoError(t, svc.Favorite(ctx, fan.ID, recipeIDs[0]))
	require.NoError(t, svc.Favorite(ctx, fan.ID, recipeIDs[2]))

	page, err := svc.ListFavorites(ctx, fan.ID, 1, 10, SortNewest)
	require.NoError(t, err)
	assert.Len(t, page.Recipes, 2)
	assert.EqualValues(t, 2, page.Total)

	empty, err := svc.ListFavorites(ctx, owner.ID, 1, 10, SortNewest)
	require.NoError(t, err)
	assert.Empty(t, empty.Recipes)
}

func TestPublishedSlugs(t *testing.T) {
	svc, db := newRecipeService(t)
	user := createUser(t, db, "alice")
	seedRecipes(t, svc, db, user, 5, true)
	seedRecipes(t, svc, db, user, 2, false)

	slugs, err := svc.PublishedSlugs(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, slugs, 3)

	all, err := svc.PublishedSlugs(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

// contextCapturingSigner records the context handed to each signing call.
type contextCapturingSigner struct {
	seen []context.Context
}

func (s *contextCapturingSigner) SignedURL(ctx context.Context, ref string) string {
	s.seen = append(s.seen, ctx)
	return ""
}

type listingCtxKey struct{}

func TestListingsPropagateCallerContext(t *testing.T) {
	_, db := newRecipeService(t)
	signer := &contextCapturingSigner{}
	svc := NewRecipeService(db, nil, signer)
	user := createUser(t, db, "alice")
	seedRecipes(t, svc, db, user, 2, true)

	ctx := context.WithValue(context.Background(), listingCtxKey{}, "caller")
	_, err := svc.ListPublic(ctx, 1, 10, SortNewest)
	require.NoError(t, err)

	require.NotEmpty(t, signer.seen)
	for _, got := range signer.seen {
		assert.Equal(t, "caller", got.Value(listingCtxKey{}))
	}
}
