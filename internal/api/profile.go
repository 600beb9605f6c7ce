package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/models"
	"github.com/foodsnap-ai/backend/internal/service"
)

// ProfileHandler lets users view and edit their own account.
type ProfileHandler struct {
	profile *service.ProfileService
	storage *service.StorageService
	auth    *service.AuthService
}

// NewProfileHandler creates a new ProfileHandler instance
func NewProfileHandler(profile *service.ProfileService, storage *service.StorageService, auth *service.AuthService) *ProfileHandler {
	return &ProfileHandler{profile: profile, storage: storage, auth: auth}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	profile.Use(middleware.AuthMiddleware(h.auth))
	{
		profile.GET("", h.Get)
		profile.PATCH("", h.Update)
		profile.POST("/avatar", h.UploadAvatar)
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.profile.Get(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, user))
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.profile.Update(c.Request.Context(), userID, service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
		default:
			log.Printf("[ProfileHandler] update failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, user))
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is unavailable"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo is required"})
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

	key, err := h.storage.Upload(c.Request.Context(), src, file.Size, file.Header.Get("Content-Type"), service.PrefixProfiles)
	if err != nil {
		log.Printf("[ProfileHandler] upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store photo"})
		return
	}

	user, err := h.profile.SetAvatar(c.Request.Context(), userID, key)
	if err != nil {
		log.Printf("[ProfileHandler] avatar update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, user))
}

func (h *ProfileHandler) toResponse(c *gin.Context, user *models.User) UserResponse {
	avatar := user.ProfilePic
	if h.storage != nil && avatar != "" {
		if signed := h.storage.SignedURL(c.Request.Context(), avatar); signed != "" {
			avatar = signed
		}
	}
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		IsAdmin:    user.IsAdmin,
		ProfilePic: avatar,
	}
}
