package cache

import "fmt"

// Cache key grammar. Keys are colon-delimited and embed every parameter that
// changes a query's result, so equal keys always mean equal payloads.

// AllRecipesKey is the listing key for the unfiltered recipe feed.
func AllRecipesKey(page, pageSize int, sort string) string {
	return fmt.Sprintf("recipes:all:page=%d:size=%d:sort=%s", page, pageSize, sort)
}

// PublicRecipesKey is the listing key for published recipes.
func PublicRecipesKey(page, pageSize int, sort string) string {
	return fmt.Sprintf("recipes:public:page=%d:size=%d:sort=%s", page, pageSize, sort)
}

// MyRecipesKey is the listing key for one user's own recipes.
func MyRecipesKey(userID uint, page, pageSize int, sort string) string {
	return fmt.Sprintf("recipes:my:user_id=%d:page=%d:size=%d:sort=%s", userID, page, pageSize, sort)
}

// FavoritesKey is the listing key for one user's favorited recipes.
func FavoritesKey(userID uint, page, pageSize int, sort string) string {
	return fmt.Sprintf("favorites:user_id=%d:page=%d:size=%d:sort=%s", userID, page, pageSize, sort)
}

// RecipeSlugKey is the single-item key for a slug lookup.
func RecipeSlugKey(slug string) string {
	return fmt.Sprintf("recipe:slug=%s", slug)
}
