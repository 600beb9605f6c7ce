package main

import (
	"flag"
	"log"

	"github.com/foodsnap-ai/backend/config"
	"github.com/foodsnap-ai/backend/internal/database"
	"github.com/foodsnap-ai/backend/internal/models"
	"github.com/foodsnap-ai/backend/internal/service"
)

// Creates an admin account, or promotes the user if the email already exists.
func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password (required for new accounts)")
	flag.Parse()

	if *email == "" {
		log.Fatal("email is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var existing models.User
	if err := db.Where("email = ?", *email).First(&existing).Error; err == nil {
		existing.IsAdmin = true
		if err := db.Save(&existing).Error; err != nil {
			log.Fatalf("Failed to promote user: %v", err)
		}
		log.Printf("Promoted %s to admin", existing.Username)
		return
	}

	if *password == "" {
		log.Fatal("password is required for new accounts")
	}

	auth := service.NewAuthService(db, cfg)
	user, err := auth.Register(*username, *email, *password)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	user.IsAdmin = true
	if err := db.Save(user).Error; err != nil {
		log.Fatalf("Failed to set admin flag: %v", err)
	}

	log.Printf("Created admin %s (%s)", user.Username, user.Email)
}
