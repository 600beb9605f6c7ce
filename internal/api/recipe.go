package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/models"
	"github.com/foodsnap-ai/backend/internal/service"
)

// maxPhotoBytes caps uploaded photos at 10 MB.
const maxPhotoBytes = 10 << 20

// RecipeHandler exposes analysis, persistence and listing of recipes.
type RecipeHandler struct {
	recipes  *service.RecipeService
	pipeline *service.PipelineService
	storage  *service.StorageService
	auth     *service.AuthService
}

// NewRecipeHandler creates a new RecipeHandler instance. storage may be nil;
// saved recipes then keep an empty image path.
func NewRecipeHandler(recipes *service.RecipeService, pipeline *service.PipelineService, storage *service.StorageService, auth *service.AuthService) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		pipeline: pipeline,
		storage:  storage,
		auth:     auth,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListPublic)
		recipes.GET("/my", middleware.AuthMiddleware(h.auth), h.ListMine)
		recipes.GET("/categories/health", h.HealthCategories)
		recipes.GET("/:slug", h.GetBySlug)
		recipes.POST("/analyze", middleware.AuthMiddleware(h.auth), h.Analyze)
		recipes.POST("/save", middleware.AuthMiddleware(h.auth), h.Save)
		recipes.PATCH("/patch/:id", middleware.AuthMiddleware(h.auth), h.Patch)
		recipes.DELETE("/:id", middleware.AuthMiddleware(h.auth), h.Delete)
	}
}

func pagination(c *gin.Context) (int, int, service.SortOrder) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	sort := service.ParseSortOrder(c.Query("sort"))
	return page, pageSize, sort
}

func (h *RecipeHandler) ListPublic(c *gin.Context) {
	page, pageSize, sort := pagination(c)
	result, err := h.recipes.ListPublic(c.Request.Context(), page, pageSize, sort)
	if err != nil {
		log.Printf("[RecipeHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RecipeHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, pageSize, sort := pagination(c)
	result, err := h.recipes.ListMine(c.Request.Context(), userID, page, pageSize, sort)
	if err != nil {
		log.Printf("[RecipeHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RecipeHandler) HealthCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.HealthCategories})
}

func (h *RecipeHandler) GetBySlug(c *gin.Context) {
	recipe, err := h.recipes.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		log.Printf("[RecipeHandler] lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipe"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// Analyze runs the photo through the staged analysis. Nothing is persisted;
// the client sends the result back through Save to keep it.
func (h *RecipeHandler) Analyze(c *gin.Context) {
	image, mimeType, ok := h.readPhoto(c)
	if !ok {
		return
	}

	result, err := h.pipeline.Analyze(c.Request.Context(), image, mimeType, c.PostForm("location"))
	if err != nil {
		log.Printf("[RecipeHandler] analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze photo"})
		return
	}

	if !result.IsFood {
		c.JSON(http.StatusOK, NotFoodResponse{
			Message:     "Not food",
			Description: result.Description,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Save persists an analysis result together with its photo. The photo goes to
// object storage first; the recipe row keeps only the object key.
func (h *RecipeHandler) Save(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	payload := c.PostForm("recipe_data")
	if payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipe_data is required"})
		return
	}

	var imageKey string
	if file, err := c.FormFile("photo"); err == nil {
		if h.storage == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is unavailable"})
			return
		}
		if file.Size > maxPhotoBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo exceeds the 10MB limit"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read photo"})
			return
		}
		defer src.Close()

		imageKey, err = h.storage.Upload(c.Request.Context(), src, file.Size, file.Header.Get("Content-Type"), service.PrefixRecipes)
		if err != nil {
			log.Printf("[RecipeHandler] upload failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store photo"})
			return
		}
	}

	recipe, err := h.recipes.Save(c.Request.Context(), userID, payload, imageKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRecipe) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe data"})
			return
		}
		log.Printf("[RecipeHandler] save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save recipe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":   recipe.ID,
		"slug": recipe.Slug,
	})
}

func (h *RecipeHandler) Patch(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe id"})
		return
	}

	var req PatchRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	isAdmin, _ := h.auth.IsAdmin(userID)
	recipe, err := h.recipes.Patch(c.Request.Context(), uint(recipeID), userID, isAdmin, service.RecipePatch{
		DishName: req.DishName,
		Publish:  req.IsPublished,
	})
	if err != nil {
		h.respondMutationError(c, err, "update")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   recipe.ID,
		"slug": recipe.Slug,
	})
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe id"})
		return
	}

	isAdmin, _ := h.auth.IsAdmin(userID)
	if err := h.recipes.Delete(c.Request.Context(), uint(recipeID), userID, isAdmin); err != nil {
		h.respondMutationError(c, err, "delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted"})
}

func (h *RecipeHandler) respondMutationError(c *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this recipe"})
	default:
		log.Printf("[RecipeHandler] %s failed: %v", verb, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + verb + " recipe"})
	}
}

// readPhoto pulls the multipart photo into memory for the model call.
func (h *RecipeHandler) readPhoto(c *gin.Context) ([]byte, string, bool) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo is required"})
		return nil, "", false
	}
	if file.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo exceeds the 10MB limit"})
		return nil, "", false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read photo"})
		return nil, "", false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read photo"})
		return nil, "", false
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, true
}
