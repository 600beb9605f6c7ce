package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/service"
)

// ImageHandler is the standalone image surface: direct uploads plus signed
// read URLs. Clients never stream image bytes through the API; reads redirect
// to time-boxed object storage URLs.
type ImageHandler struct {
	storage *service.StorageService
	auth    *service.AuthService
}

// NewImageHandler creates a new ImageHandler instance. storage may be nil;
// every route then reports the storage as unavailable.
func NewImageHandler(storage *service.StorageService, auth *service.AuthService) *ImageHandler {
	return &ImageHandler{storage: storage, auth: auth}
}

func (h *ImageHandler) RegisterRoutes(router *gin.RouterGroup) {
	images := router.Group("/images")
	images.Use(middleware.AuthMiddleware(h.auth))
	{
		images.POST("", h.Upload)
		images.GET("/url", h.SignedURL)
	}
}

// Upload stores a standalone image and returns its object key together with a
// signed read URL. kind selects the key prefix; anything but "profile" lands
// under the recipes prefix.
func (h *ImageHandler) Upload(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is unavailable"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the 10MB limit"})
		return
	}

	prefix := service.PrefixRecipes
	if c.PostForm("kind") == "profile" {
		prefix = service.PrefixProfiles
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer src.Close()

	key, err := h.storage.Upload(c.Request.Context(), src, file.Size, file.Header.Get("Content-Type"), prefix)
	if err != nil {
		log.Printf("[ImageHandler] upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key": key,
		"url": h.storage.SignedURL(c.Request.Context(), key),
	})
}

// SignedURL resolves a stored object reference into a fresh signed read URL.
func (h *ImageHandler) SignedURL(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is unavailable"})
		return
	}

	ref := c.Query("key")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	signed := h.storage.SignedURL(c.Request.Context(), ref)
	if signed == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signed})
}
