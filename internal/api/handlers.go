package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/config"
	"github.com/foodsnap-ai/backend/internal/cache"
	"github.com/foodsnap-ai/backend/internal/service"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "FoodSnap API is running",
		"version": "v1.0.0",
	})
}

// SetupAPI builds every service and mounts all route groups on the engine.
// redisClient, s3cfg and llm may be nil; the affected features then degrade
// (no caching, unsigned image paths, analysis disabled) without taking the
// rest of the API down.
func SetupAPI(router *gin.Engine, db *gorm.DB, redisClient *redis.Client, s3cfg *config.S3Config, llm service.LLMClient, cfg *config.Config) {
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	cacheLayer := cache.New(redisClient)

	var storageService *service.StorageService
	var signer service.URLSigner
	if s3cfg != nil {
		storageService = service.NewStorageService(s3cfg, cfg)
		signer = storageService
	}

	authService := service.NewAuthService(db, cfg)
	profileService := service.NewProfileService(db, cacheLayer)
	recipeService := service.NewRecipeService(db, cacheLayer, signer)
	pipelineService := service.NewPipelineService(llm)

	authHandler := NewAuthHandler(authService, signer, config.IsProduction(), cfg.RefreshTokenTTL)
	recipeHandler := NewRecipeHandler(recipeService, pipelineService, storageService, authService)
	favoriteHandler := NewFavoriteHandler(recipeService, authService)
	profileHandler := NewProfileHandler(profileService, storageService, authService)
	imageHandler := NewImageHandler(storageService, authService)
	adminHandler := NewAdminHandler(db, recipeService, authService, cacheLayer)
	seoHandler := NewSEOHandler(recipeService, cfg.SiteBaseURL)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)
	favoriteHandler.RegisterRoutes(v1)
	profileHandler.RegisterRoutes(v1)
	imageHandler.RegisterRoutes(v1)
	adminHandler.RegisterRoutes(v1)
	seoHandler.RegisterRoutes(router, v1)
}
