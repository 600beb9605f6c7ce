package models

import (
	"time"
)

type Recipe struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Slug        string    `gorm:"size:255;uniqueIndex" json:"slug"`
	DishName    string    `gorm:"size:255;not null" json:"dish_name"`
	Recipe      string    `gorm:"type:text;not null" json:"recipe"`
	ImagePath   string    `gorm:"size:512" json:"image_path"`
	IsPublished bool      `gorm:"not null;default:false" json:"is_published"`

	EstimatedWeightG     int  `json:"estimated_weight_g"`
	TotalCaloriesPer100g int  `json:"total_calories_per_100g"`
	IsVegan              bool `gorm:"not null;default:false" json:"is_vegan"`
	IsHalal              bool `gorm:"not null;default:false" json:"is_halal"`

	User        User                 `gorm:"foreignKey:UserID" json:"-"`
	Ingredients []IngredientCalories `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients_calories"`
	Categories  []Category           `gorm:"many2many:recipe_categories;constraint:OnDelete:CASCADE" json:"categories"`
}

// IngredientCalories is one ingredient row of a recipe with its kcal/100g
// estimate. It has no lifecycle of its own and is cascade-deleted with the
// recipe.
type IngredientCalories struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	RecipeID uint   `gorm:"not null;index" json:"recipe_id"`
	Name     string `gorm:"size:255;not null" json:"ingredient"`
	Calories int    `gorm:"not null" json:"calories"`
}

func (IngredientCalories) TableName() string {
	return "ingredient_calories"
}

type Category struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

// FavoriteRecipe links a user to a recipe they favorited. The composite
// unique index makes a duplicate (user, recipe) pair a constraint violation.
type FavoriteRecipe struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_user_recipe" json:"recipe_id"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (FavoriteRecipe) TableName() string {
	return "favorite_recipes"
}

// HealthCategories is the fixed vocabulary of health tags. Category rows only
// ever hold names from this list; anything else submitted on save is dropped.
var HealthCategories = []string{
	"High-Protein",
	"Low-Calorie",
	"Low-Carb",
	"Low-Fat",
	"High-Fiber",
	"Sugar-Free",
	"Gluten-Free",
	"Dairy-Free",
	"Keto",
	"Balanced",
}

// IsHealthCategory reports whether name belongs to the fixed vocabulary.
func IsHealthCategory(name string) bool {
	for _, c := range HealthCategories {
		if c == name {
			return true
		}
	}
	return false
}
