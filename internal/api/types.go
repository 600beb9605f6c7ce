package api

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest accepts a username or an email in the login field.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest carries the Google-issued ID token.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// TokenResponse is returned by every login flow. The refresh token is never
// part of the body; it travels only in an HTTP-only cookie.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NotFoodResponse is returned when the analysis rejects a non-food image.
type NotFoodResponse struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"is_admin"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

// UpdateProfileRequest patches the caller's own account. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// PatchRecipeRequest renames or publishes a recipe. Nil fields are left
// untouched.
type PatchRecipeRequest struct {
	DishName    *string `json:"dish_name"`
	IsPublished *bool   `json:"is_published"`
}

// FavoriteStatusResponse reports whether the caller favorited a recipe.
type FavoriteStatusResponse struct {
	RecipeID    uint `json:"recipe_id"`
	IsFavorited bool `json:"is_favorited"`
}
