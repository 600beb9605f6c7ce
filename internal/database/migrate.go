package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/internal/models"
)

// Migrate runs the schema migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.IngredientCalories{},
		&models.Category{},
		&models.FavoriteRecipe{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
