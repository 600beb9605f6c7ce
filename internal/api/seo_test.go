package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemap(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.signup(t, "alice", false)

	publishedID, publishedSlug := saveRecipe(t, env, token, "Public Dish")
	publish(t, env, token, publishedID)
	_, draftSlug := saveRecipe(t, env, token, "Draft Dish")

	w := env.request(t, http.MethodGet, "/sitemap.xml", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")

	body := w.Body.String()
	assert.Contains(t, body, "<urlset")
	assert.Contains(t, body, "https://foodsnapai.food/recipes/"+publishedSlug)
	assert.NotContains(t, body, draftSlug)
}

func TestRobots(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.request(t, http.MethodGet, "/robots.txt", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "User-agent: *")
	assert.Contains(t, body, "Sitemap: https://foodsnapai.food/sitemap.xml")
	assert.Contains(t, body, "Disallow: /api/")
}

func TestRecipeJSONLD(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.signup(t, "alice", false)
	_, slug := saveRecipe(t, env, token, "Tomato Soup")

	w := env.request(t, http.MethodGet, "/api/v1/recipes/"+slug+"/jsonld", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]interface{}
	decodeBody(t, w, &doc)
	assert.Equal(t, "https://schema.org", doc["@context"])
	assert.Equal(t, "Recipe", doc["@type"])
	assert.Equal(t, "Tomato Soup", doc["name"])
	assert.Equal(t, "https://foodsnapai.food/recipes/"+slug, doc["url"])

	w = env.request(t, http.MethodGet, "/api/v1/recipes/missing-1/jsonld", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
