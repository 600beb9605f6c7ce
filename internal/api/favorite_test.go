package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodsnap-ai/backend/internal/service"
)

func TestFavoriteFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	_, aliceToken := env.signup(t, "alice", false)
	_, bobToken := env.signup(t, "bob", false)

	id, _ := saveRecipe(t, env, aliceToken, "Pie")
	path := fmt.Sprintf("/api/v1/favorites/%d", id)

	// Owners cannot favorite their own recipe.
	w := env.request(t, http.MethodPost, path, aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, path, bobToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, path, bobToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.request(t, http.MethodGet, path+"/status", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status FavoriteStatusResponse
	decodeBody(t, w, &status)
	assert.True(t, status.IsFavorited)

	w = env.request(t, http.MethodGet, "/api/v1/favorites", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.PaginatedRecipes
	decodeBody(t, w, &page)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Pie", page.Recipes[0].DishName)

	w = env.request(t, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/favorites/9999", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Everything under /favorites requires auth.
	w = env.request(t, http.MethodGet, "/api/v1/favorites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
