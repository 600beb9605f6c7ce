package main

import (
	"context"
	"log"

	"github.com/foodsnap-ai/backend/config"
	"github.com/foodsnap-ai/backend/internal/database"
	"github.com/foodsnap-ai/backend/internal/router"
	"github.com/foodsnap-ai/backend/internal/server"
	"github.com/foodsnap-ai/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is optional; listings fall through to the database without it.
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
		redisClient = nil
	}

	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		log.Printf("Warning: S3 unavailable, image storage disabled: %v", err)
		s3cfg = nil
	}

	var llm service.LLMClient
	llmService, err := service.NewLLMService(cfg)
	if err != nil {
		log.Printf("Warning: Gemini unavailable, photo analysis disabled: %v", err)
	} else {
		llm = llmService
	}

	engine := router.SetupRouter(db, redisClient, s3cfg, llm, cfg)

	srv := server.NewServer(engine, cfg.ServerHost+":"+cfg.ServerPort)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
