package api

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/internal/cache"
	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/models"
	"github.com/foodsnap-ai/backend/internal/service"
)

// AdminHandler exposes the moderation surface. Every route requires an
// authenticated admin.
type AdminHandler struct {
	db      *gorm.DB
	recipes *service.RecipeService
	auth    *service.AuthService
	cache   *cache.Cache
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(db *gorm.DB, recipes *service.RecipeService, auth *service.AuthService, c *cache.Cache) *AdminHandler {
	return &AdminHandler{db: db, recipes: recipes, auth: auth, cache: c}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.auth), middleware.AdminMiddleware(h.auth))
	{
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.PATCH("/users/:id/admin", h.SetAdmin)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.GET("/recipes", h.ListRecipes)
		admin.DELETE("/recipes/:id", h.DeleteRecipe)
		admin.GET("/stats", h.Stats)
		admin.GET("/dashboard", h.Dashboard)
	}
}

type adminUserRow struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
	RecipeCount int64  `json:"recipe_count"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = service.NormalizePagination(page, pageSize)

	var total int64
	if err := h.db.Model(&models.User{}).Count(&total).Error; err != nil {
		log.Printf("[AdminHandler] user count failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	var users []models.User
	err := h.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		log.Printf("[AdminHandler] user list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	rows := make([]adminUserRow, 0, len(users))
	for _, u := range users {
		var recipeCount int64
		h.db.Model(&models.Recipe{}).Where("user_id = ?", u.ID).Count(&recipeCount)
		rows = append(rows, adminUserRow{
			ID:          u.ID,
			Username:    u.Username,
			Email:       u.Email,
			IsAdmin:     u.IsAdmin,
			RecipeCount: recipeCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users":       rows,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var recipeCount int64
	h.db.Model(&models.Recipe{}).Where("user_id = ?", user.ID).Count(&recipeCount)

	c.JSON(http.StatusOK, adminUserRow{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsAdmin:     user.IsAdmin,
		RecipeCount: recipeCount,
	})
}

// SetAdmin grants or revokes the admin flag. Admins cannot demote themselves,
// so at least one admin always remains reachable.
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	var req struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_admin is required"})
		return
	}

	if userID == actorID && !*req.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot revoke your own admin access"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.IsAdmin = *req.IsAdmin
	if err := h.db.Save(&user).Error; err != nil {
		log.Printf("[AdminHandler] admin flag update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "is_admin": user.IsAdmin})
}

// DeleteUser removes an account with all its recipes and favorites.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	if userID == actorID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var slugs []string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var recipeIDs []uint
		if err := tx.Model(&models.Recipe{}).Where("user_id = ?", userID).Pluck("id", &recipeIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Recipe{}).Where("user_id = ?", userID).Pluck("slug", &slugs).Error; err != nil {
			return err
		}
		if len(recipeIDs) > 0 {
			if err := tx.Where("recipe_id IN ?", recipeIDs).Delete(&models.IngredientCalories{}).Error; err != nil {
				return err
			}
			if err := tx.Where("recipe_id IN ?", recipeIDs).Delete(&models.FavoriteRecipe{}).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM recipe_categories WHERE recipe_id IN ?", recipeIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.Recipe{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.FavoriteRecipe{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		log.Printf("[AdminHandler] user delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	ctx := c.Request.Context()
	h.cache.InvalidateRecipes(ctx, slugs...)
	h.cache.InvalidateUserRecipes(ctx, userID)
	h.cache.InvalidateAllFavorites(ctx)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *AdminHandler) ListRecipes(c *gin.Context) {
	page, pageSize, sort := pagination(c)
	result, err := h.recipes.ListAll(c.Request.Context(), page, pageSize, sort)
	if err != nil {
		log.Printf("[AdminHandler] recipe list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) DeleteRecipe(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe id"})
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), uint(recipeID), actorID, true); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		log.Printf("[AdminHandler] recipe delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted"})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.collectStats())
}

// Dashboard combines the counters with the most recent signups and recipes.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var recentUsers []models.User
	h.db.Order("created_at DESC").Limit(5).Find(&recentUsers)

	users := make([]UserResponse, 0, len(recentUsers))
	for _, u := range recentUsers {
		users = append(users, UserResponse{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			IsAdmin:  u.IsAdmin,
		})
	}

	recent, err := h.recipes.ListAll(c.Request.Context(), 1, 5, service.SortNewest)
	if err != nil {
		log.Printf("[AdminHandler] dashboard failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":          h.collectStats(),
		"recent_users":   users,
		"recent_recipes": recent.Recipes,
	})
}

func (h *AdminHandler) collectStats() gin.H {
	var users, recipes, published, favorites int64
	h.db.Model(&models.User{}).Count(&users)
	h.db.Model(&models.Recipe{}).Count(&recipes)
	h.db.Model(&models.Recipe{}).Where("is_published = ?", true).Count(&published)
	h.db.Model(&models.FavoriteRecipe{}).Count(&favorites)

	return gin.H{
		"users":             users,
		"recipes":           recipes,
		"published_recipes": published,
		"favorites":         favorites,
	}
}

func (h *AdminHandler) userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return uint(id), true
}
