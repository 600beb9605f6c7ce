package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodsnap-ai/backend/internal/cache"
	"github.com/foodsnap-ai/backend/internal/testhelpers"
)

// Recipe mutations must clear every user's cached favorites pages, not just
// the owner's listings. Otherwise a fan keeps seeing the old name, or a
// deleted recipe, until the listing TTL runs out.
func TestMutationsInvalidateFavoritesCache(t *testing.T) {
	client := testhelpers.SetupTestRedis(t)
	db := testhelpers.SetupTestDB(t)
	svc := NewRecipeService(db, cache.New(client), nil)
	ctx := context.Background()

	owner := testhelpers.CreateTestUser(t, db, "owner", "owner@example.com", "secret123")
	fan := testhelpers.CreateTestUser(t, db, "fan", "fan@example.com", "secret123")
	recipe := testhelpers.CreateTestRecipe(t, db, owner.ID, "Tomato Soup", true)
	require.NoError(t, svc.Favorite(ctx, fan.ID, recipe.ID))

	// Warm the fan's favorites page.
	page, err := svc.ListFavorites(ctx, fan.ID, 1, 10, SortNewest)
	require.NoError(t, err)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Tomato Soup", page.Recipes[0].DishName)

	// A rename must reach the cached page immediately.
	newName := "Gazpacho"
	_, err = svc.Patch(ctx, recipe.ID, owner.ID, false, RecipePatch{DishName: &newName})
	require.NoError(t, err)

	page, err = svc.ListFavorites(ctx, fan.ID, 1, 10, SortNewest)
	require.NoError(t, err)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Gazpacho", page.Recipes[0].DishName)

	// So must a delete; the warm page may not keep serving the recipe.
	require.NoError(t, svc.Delete(ctx, recipe.ID, owner.ID, false))

	page, err = svc.ListFavorites(ctx, fan.ID, 1, 10, SortNewest)
	require.NoError(t, err)
	assert.Empty(t, page.Recipes)
	assert.EqualValues(t, 0, page.Total)
}
