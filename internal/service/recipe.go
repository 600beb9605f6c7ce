package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/internal/cache"
	"github.com/foodsnap-ai/backend/internal/models"
)

// SortOrder is the closed enumeration of listing sort orders.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortNameAsc  SortOrder = "name_asc"
	SortNameDesc SortOrder = "name_desc"
)

// ParseSortOrder maps a query parameter onto the enumeration, defaulting to
// newest for anything unrecognized.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortOldest, SortNameAsc, SortNameDesc:
		return SortOrder(s)
	default:
		return SortNewest
	}
}

func (o SortOrder) orderClause() string {
	switch o {
	case SortOldest:
		return "recipes.created_at ASC"
	case SortNameAsc:
		return "recipes.dish_name ASC"
	case SortNameDesc:
		return "recipes.dish_name DESC"
	default:
		return "recipes.created_at DESC"
	}
}

// NormalizePagination clamps a 1-based page and a page size into bounds.
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// IngredientCaloriesResponse is one ingredient with its kcal/100g estimate.
type IngredientCaloriesResponse struct {
	Ingredient string `json:"ingredient"`
	Calories   int    `json:"calories"`
}

// RecipeResponse is the client-facing shape of a persisted recipe.
type RecipeResponse struct {
	ID                   uint                         `json:"id"`
	UserID               uint                         `json:"user_id"`
	UserName             string                       `json:"user_name"`
	UserAvatar           string                       `json:"user_avatar"`
	Slug                 string                       `json:"slug"`
	DishName             string                       `json:"dish_name"`
	Ingredients          []IngredientCaloriesResponse `json:"ingredients_calories"`
	Recipe               string                       `json:"recipe"`
	ImagePath            string                       `json:"image_path"`
	IsPublished          bool                         `json:"is_published"`
	EstimatedWeightG     int                          `json:"estimated_weight_g"`
	TotalCaloriesPer100g int                          `json:"total_calories_per_100g"`
	IsVegan              bool                         `json:"is_vegan"`
	IsHalal              bool                         `json:"is_halal"`
	Categories           []string                     `json:"categories"`
	CreatedAt            time.Time                    `json:"created_at"`
}

// PaginatedRecipes carries one page of recipes with the pagination metadata.
type PaginatedRecipes struct {
	Recipes    []RecipeResponse `json:"recipes"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// SaveRecipeRequest is the analysis payload the client sends back on save.
type SaveRecipeRequest struct {
	DishName             string                       `json:"dish_name"`
	Ingredients          []string                     `json:"ingredients"`
	Recipe               string                       `json:"recipe"`
	IngredientsCalories  []IngredientCaloriesResponse `json:"ingredients_calories"`
	EstimatedWeightG     int                          `json:"estimated_weight_g"`
	TotalCaloriesPer100g int                          `json:"total_calories_per_100g"`
	Categories           []string                     `json:"categories"`
	Vegan                bool                         `json:"vegan"`
	Halal                bool                         `json:"halal"`
}

// RecipePatch carries the two patchable fields; nil means unchanged.
type RecipePatch struct {
	DishName *string `json:"dish_name"`
	Publish  *bool   `json:"publish"`
}

// URLSigner mints time-boxed read URLs from stored object references. An
// empty result means the reference could not be signed and is passed through.
type URLSigner interface {
	SignedURL(ctx context.Context, ref string) string
}

// RecipeService handles recipe persistence, pagination and favorites
type RecipeService struct {
	db     *gorm.DB
	cache  *cache.Cache
	signer URLSigner
}

// NewRecipeService creates a new RecipeService instance. cache and signer may
// be nil; listings then skip caching and return stored references unsigned.
func NewRecipeService(db *gorm.DB, c *cache.Cache, signer URLSigner) *RecipeService {
	return &RecipeService{db: db, cache: c, signer: signer}
}

// ListAll returns one page of every recipe regardless of publication state.
func (s *RecipeService) ListAll(ctx context.Context, page, pageSize int, sort SortOrder) (*PaginatedRecipes, error) {
	page, pageSize = NormalizePagination(page, pageSize)
	key := cache.AllRecipesKey(page, pageSize, string(sort))
	return s.listCached(ctx, key, page, pageSize, sort, s.db.Model(&models.Recipe{}))
}

// ListPublic returns one page of published recipes.
func (s *RecipeService) ListPublic(ctx context.Context, page, pageSize int, sort SortOrder) (*PaginatedRecipes, error) {
	page, pageSize = NormalizePagination(page, pageSize)
	key := cache.PublicRecipesKey(page, pageSize, string(sort))
	query := s.db.Model(&models.Recipe{}).Where("is_published = ?", true)
	return s.listCached(ctx, key, page, pageSize, sort, query)
}

// ListMine returns one page of the user's own recipes.
func (s *RecipeService) ListMine(ctx context.Context, userID uint, page, pageSize int, sort SortOrder) (*PaginatedRecipes, error) {
	page, pageSize = NormalizePagination(page, pageSize)
	key := cache.MyRecipesKey(userID, page, pageSize, string(sort))
	query := s.db.Model(&models.Recipe{}).Where("user_id = ?", userID)
	return s.listCached(ctx, key, page, pageSize, sort, query)
}

// ListFavorites returns one page of the recipes the user has favorited.
func (s *RecipeService) ListFavorites(ctx context.Context, userID uint, page, pageSize int, sort SortOrder) (*PaginatedRecipes, error) {
	page, pageSize = NormalizePagination(page, pageSize)
	key := cache.FavoritesKey(userID, page, pageSize, string(sort))
	query := s.db.Model(&models.Recipe{}).
		Joins("JOIN favorite_recipes ON favorite_recipes.recipe_id = recipes.id").
		Where("favorite_recipes.user_id = ?", userID)
	return s.listCached(ctx, key, page, pageSize, sort, query)
}

func (s *RecipeService) listCached(ctx context.Context, key string, page, pageSize int, sort SortOrder, query *gorm.DB) (*PaginatedRecipes, error) {
	var cached PaginatedRecipes
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.paginate(ctx, query, page, pageSize, sort)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, result, cache.ListTTL)
	return result, nil
}

func (s *RecipeService) paginate(ctx context.Context, query *gorm.DB, page, pageSize int, sort SortOrder) (*PaginatedRecipes, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := query.Session(&gorm.Session{}).
		Preload("User").
		Preload("Ingredients").
		Preload("Categories").
		Order(sort.orderClause()).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipes: %w", err)
	}

	responses := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		responses = append(responses, s.toResponse(ctx, &recipes[i]))
	}

	return &PaginatedRecipes{
		Recipes:    responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (s *RecipeService) toResponse(ctx context.Context, r *models.Recipe) RecipeResponse {
	ingredients := make([]IngredientCaloriesResponse, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, IngredientCaloriesResponse{
			Ingredient: ing.Name,
			Calories:   ing.Calories,
		})
	}

	categories := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		categories = append(categories, c.Name)
	}

	imagePath := r.ImagePath
	avatar := r.User.ProfilePic
	if s.signer != nil {
		if signed := s.signer.SignedURL(ctx, imagePath); signed != "" {
			imagePath = signed
		}
		if signed := s.signer.SignedURL(ctx, avatar); signed != "" {
			avatar = signed
		}
	}

	return RecipeResponse{
		ID:                   r.ID,
		UserID:               r.UserID,
		UserName:             r.User.Username,
		UserAvatar:           avatar,
		Slug:                 r.Slug,
		DishName:             r.DishName,
		Ingredients:          ingredients,
		Recipe:               r.Recipe,
		ImagePath:            imagePath,
		IsPublished:          r.IsPublished,
		EstimatedWeightG:     r.EstimatedWeightG,
		TotalCaloriesPer100g: r.TotalCaloriesPer100g,
		IsVegan:              r.IsVegan,
		IsHalal:              r.IsHalal,
		Categories:           categories,
		CreatedAt:            r.CreatedAt,
	}
}

// GetBySlug is the canonical public read path for a single recipe.
func (s *RecipeService) GetBySlug(ctx context.Context, slug string) (*RecipeResponse, error) {
	key := cache.RecipeSlugKey(slug)
	var cached RecipeResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	var recipe models.Recipe
	err := s.db.Preload("User").Preload("Ingredients").Preload("Categories").
		Where("slug = ?", slug).First(&recipe).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp := s.toResponse(ctx, &recipe)
	s.cache.Set(ctx, key, resp, cache.RecipeTTL)
	return &resp, nil
}

// GetByID loads a recipe row by numeric id. Reserved for owner/admin mutation
// paths; slug is the public addressing scheme.
func (s *RecipeService) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.Preload("Ingredients").Preload("Categories").First(&recipe, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Save persists an analyzed recipe together with its ingredient rows and
// health categories in one transaction; all rows land or none do. The slug is
// derived from the dish name and the id the insert assigns.
func (s *RecipeService) Save(ctx context.Context, userID uint, payload string, imageKey string) (*models.Recipe, error) {
	var req SaveRecipeRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipe, err)
	}
	if req.DishName == "" || req.Recipe == "" {
		return nil, ErrInvalidRecipe
	}

	recipe := models.Recipe{
		UserID:               userID,
		DishName:             req.DishName,
		Recipe:               req.Recipe,
		ImagePath:            imageKey,
		EstimatedWeightG:     req.EstimatedWeightG,
		TotalCaloriesPer100g: req.TotalCaloriesPer100g,
		IsVegan:              req.Vegan,
		IsHalal:              req.Halal,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}

		recipe.Slug = MakeSlug(recipe.DishName, recipe.ID)
		if err := tx.Model(&recipe).Update("slug", recipe.Slug).Error; err != nil {
			return err
		}

		ingredients := req.IngredientsCalories
		if len(ingredients) == 0 {
			// Older clients send a bare ingredient list without estimates.
			for _, name := range req.Ingredients {
				ingredients = append(ingredients, IngredientCaloriesResponse{Ingredient: name})
			}
		}
		for _, ing := range ingredients {
			row := models.IngredientCalories{
				RecipeID: recipe.ID,
				Name:     ing.Ingredient,
				Calories: ing.Calories,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			recipe.Ingredients = append(recipe.Ingredients, row)
		}

		for _, name := range req.Categories {
			// Names outside the fixed vocabulary are dropped, not rejected.
			if !models.IsHealthCategory(name) {
				continue
			}
			var category models.Category
			if err := tx.Where("name = ?", name).FirstOrCreate(&category, models.Category{Name: name}).Error; err != nil {
				return err
			}
			if err := tx.Model(&recipe).Association("Categories").Append(&category); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}

	s.cache.InvalidateRecipes(ctx, recipe.Slug)
	s.cache.InvalidateUserRecipes(ctx, userID)

	return &recipe, nil
}

// Patch updates the dish name and/or the published flag. Renaming re-derives
// the slug, so both the old and new slug cache keys get invalidated.
func (s *RecipeService) Patch(ctx context.Context, recipeID, actorID uint, isAdmin bool, patch RecipePatch) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.First(&recipe, recipeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.UserID != actorID && !isAdmin {
		return nil, ErrForbidden
	}

	oldSlug := recipe.Slug
	if patch.DishName != nil && *patch.DishName != "" {
		recipe.DishName = *patch.DishName
		recipe.Slug = MakeSlug(recipe.DishName, recipe.ID)
	}
	if patch.Publish != nil {
		recipe.IsPublished = *patch.Publish
	}

	if err := s.db.Save(&recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	s.cache.InvalidateRecipes(ctx, oldSlug, recipe.Slug)
	s.cache.InvalidateUserRecipes(ctx, recipe.UserID)
	s.cache.InvalidateAllFavorites(ctx)

	return &recipe, nil
}

// Delete removes a recipe together with its ingredient rows, category links
// and favorite links.
func (s *RecipeService) Delete(ctx context.Context, recipeID, actorID uint, isAdmin bool) error {
	var recipe models.Recipe
	if err := s.db.First(&recipe, recipeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if recipe.UserID != actorID && !isAdmin {
		return ErrForbidden
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientCalories{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.FavoriteRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.cache.InvalidateRecipes(ctx, recipe.Slug)
	s.cache.InvalidateUserRecipes(ctx, recipe.UserID)
	s.cache.InvalidateAllFavorites(ctx)

	return nil
}

// Favorite adds a recipe to the user's favorites. Users cannot favorite their
// own recipes, and the (user, recipe) pair is unique.
func (s *RecipeService) Favorite(ctx context.Context, userID, recipeID uint) error {
	var recipe models.Recipe
	if err := s.db.First(&recipe, recipeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if recipe.UserID == userID {
		return ErrOwnRecipe
	}

	var existing models.FavoriteRecipe
	if err := s.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).First(&existing).Error; err == nil {
		return ErrAlreadyFavorited
	}

	fav := models.FavoriteRecipe{UserID: userID, RecipeID: recipeID}
	if err := s.db.Create(&fav).Error; err != nil {
		return fmt.Errorf("failed to favorite recipe: %w", err)
	}

	s.cache.InvalidateFavorites(ctx, userID)
	return nil
}

// Unfavorite removes a recipe from the user's favorites.
func (s *RecipeService) Unfavorite(ctx context.Context, userID, recipeID uint) error {
	result := s.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(&models.FavoriteRecipe{})
	if result.Error != nil {
		return fmt.Errorf("failed to unfavorite recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.cache.InvalidateFavorites(ctx, userID)
	return nil
}

// IsFavorited reports whether the user has favorited the recipe.
func (s *RecipeService) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.FavoriteRecipe{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PublishedSlugs returns up to limit slugs of published recipes, newest first.
// Used by the sitemap.
func (s *RecipeService) PublishedSlugs(ctx context.Context, limit int) ([]string, error) {
	var slugs []string
	err := s.db.Model(&models.Recipe{}).
		Where("is_published = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	return slugs, nil
}
