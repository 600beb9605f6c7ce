package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/service"
)

// FavoriteHandler manages the caller's favorite recipes.
type FavoriteHandler struct {
	recipes *service.RecipeService
	auth    *service.AuthService
}

// NewFavoriteHandler creates a new FavoriteHandler instance
func NewFavoriteHandler(recipes *service.RecipeService, auth *service.AuthService) *FavoriteHandler {
	return &FavoriteHandler{recipes: recipes, auth: auth}
}

func (h *FavoriteHandler) RegisterRoutes(router *gin.RouterGroup) {
	favorites := router.Group("/favorites")
	favorites.Use(middleware.AuthMiddleware(h.auth))
	{
		favorites.GET("", h.List)
		favorites.POST("/:recipe_id", h.Add)
		favorites.DELETE("/:recipe_id", h.Remove)
		favorites.GET("/:recipe_id/status", h.Status)
	}
}

func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, pageSize, sort := pagination(c)
	result, err := h.recipes.ListFavorites(c.Request.Context(), userID, page, pageSize, sort)
	if err != nil {
		log.Printf("[FavoriteHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, recipeID, ok := h.params(c)
	if !ok {
		return
	}

	if err := h.recipes.Favorite(c.Request.Context(), userID, recipeID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		case errors.Is(err, service.ErrOwnRecipe):
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot favorite your own recipe"})
		case errors.Is(err, service.ErrAlreadyFavorited):
			c.JSON(http.StatusConflict, gin.H{"error": "Recipe already favorited"})
		default:
			log.Printf("[FavoriteHandler] add failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to favorite recipe"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Recipe favorited"})
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, recipeID, ok := h.params(c)
	if !ok {
		return
	}

	if err := h.recipes.Unfavorite(c.Request.Context(), userID, recipeID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Favorite not found"})
			return
		}
		log.Printf("[FavoriteHandler] remove failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfavorite recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe unfavorited"})
}

func (h *FavoriteHandler) Status(c *gin.Context) {
	userID, recipeID, ok := h.params(c)
	if !ok {
		return
	}

	favorited, err := h.recipes.IsFavorited(c.Request.Context(), userID, recipeID)
	if err != nil {
		log.Printf("[FavoriteHandler] status failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check favorite status"})
		return
	}

	c.JSON(http.StatusOK, FavoriteStatusResponse{
		RecipeID:    recipeID,
		IsFavorited: favorited,
	})
}

func (h *FavoriteHandler) params(c *gin.Context) (uint, uint, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, 0, false
	}

	recipeID, err := strconv.ParseUint(c.Param("recipe_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe id"})
		return 0, 0, false
	}

	return userID, uint(recipeID), true
}
