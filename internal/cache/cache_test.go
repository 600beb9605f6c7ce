package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyGrammar(t *testing.T) {
	assert.Equal(t, "recipes:all:page=1:size=10:sort=newest", AllRecipesKey(1, 10, "newest"))
	assert.Equal(t, "recipes:public:page=2:size=20:sort=name_asc", PublicRecipesKey(2, 20, "name_asc"))
	assert.Equal(t, "recipes:my:user_id=7:page=1:size=10:sort=newest", MyRecipesKey(7, 1, 10, "newest"))
	assert.Equal(t, "favorites:user_id=7:page=3:size=5:sort=oldest", FavoritesKey(7, 3, 5, "oldest"))
	assert.Equal(t, "recipe:slug=tomato-soup-42", RecipeSlugKey("tomato-soup-42"))
}

// Every method must be a no-op without a configured client so the services
// can run uncached.
func TestCacheWithoutClient(t *testing.T) {
	ctx := context.Background()

	for _, c := range []*Cache{nil, New(nil)} {
		var out string
		assert.False(t, c.Get(ctx, "k", &out))
		c.Set(ctx, "k", "v", time.Minute)
		c.DeletePattern(ctx, "recipes:*")
		c.InvalidateRecipes(ctx, "some-slug")
		c.InvalidateUserRecipes(ctx, 1)
		c.InvalidateFavorites(ctx, 1)
		c.InvalidateAllFavorites(ctx)
	}
}
