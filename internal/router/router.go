package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/config"
	"github.com/foodsnap-ai/backend/internal/api"
	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/service"
)

// SetupRouter configures the application routes
func SetupRouter(db *gorm.DB, redisClient *redis.Client, s3cfg *config.S3Config, llm service.LLMClient, cfg *config.Config) *gin.Engine {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORS())

	api.SetupAPI(router, db, redisClient, s3cfg, llm, cfg)

	return router
}
