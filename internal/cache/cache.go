package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Listing payloads stay cached briefly; single-recipe lookups a bit longer.
const (
	ListTTL   = 300 * time.Second
	RecipeTTL = 1000 * time.Second
)

// Cache is a read-through accelerator in front of paginated and aggregate
// queries. Every operation is best-effort: a redis failure is logged and
// reported as a miss (or swallowed on write), never propagated to the caller.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached JSON payload for key, unmarshaled into dest.
// It reports false on a miss or any cache failure.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] get %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[Cache] unmarshal %s failed: %v", key, err)
		return false
	}
	return true
}

// Set stores v under key as JSON with the given expiry.
func (c *Cache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Cache] marshal %s failed: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[Cache] set %s failed: %v", key, err)
	}
}

// DeletePattern scans the key space for glob matches and deletes them all.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	if c == nil || c.client == nil {
		return
	}
	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Printf("[Cache] scan %s failed: %v", pattern, err)
			return
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[Cache] delete %d keys for %s failed: %v", len(keys), pattern, err)
	}
}

// InvalidateRecipes clears every recipe listing key plus the single-item keys
// for any slugs passed in. Mutations over-invalidate the whole family rather
// than chase exact entries.
func (c *Cache) InvalidateRecipes(ctx context.Context, slugs ...string) {
	if c == nil || c.client == nil {
		return
	}
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		if err := c.client.Del(ctx, RecipeSlugKey(slug)).Err(); err != nil {
			log.Printf("[Cache] delete slug key %s failed: %v", slug, err)
		}
	}
	c.DeletePattern(ctx, "recipes:*")
}

// InvalidateUserRecipes clears one user's personal listing keys.
func (c *Cache) InvalidateUserRecipes(ctx context.Context, userID uint) {
	c.DeletePattern(ctx, fmt.Sprintf("recipes:my:user_id=%d:*", userID))
}

// InvalidateFavorites clears one user's favorites listing keys.
func (c *Cache) InvalidateFavorites(ctx context.Context, userID uint) {
	c.DeletePattern(ctx, fmt.Sprintf("favorites:user_id=%d:*", userID))
}

// InvalidateAllFavorites clears every user's favorites listing keys. Recipe
// mutations use this: the set of users holding a recipe in their favorites is
// unbounded, so the whole family goes rather than chasing each fan.
func (c *Cache) InvalidateAllFavorites(ctx context.Context) {
	c.DeletePattern(ctx, "favorites:*")
}
