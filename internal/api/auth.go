package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/models"
	"github.com/foodsnap-ai/backend/internal/service"
)

// The refresh token travels only in this cookie, scoped to the auth routes.
const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler handles registration, both login flows and token refresh.
type AuthHandler struct {
	auth       *service.AuthService
	signer     service.URLSigner
	secure     bool
	refreshTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler instance. secure controls the
// Secure flag on the refresh cookie and is off outside production.
func NewAuthHandler(auth *service.AuthService, signer service.URLSigner, secure bool, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, signer: signer, secure: secure, refreshTTL: refreshTTL}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/google", h.GoogleLogin)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", middleware.AuthMiddleware(h.auth), h.Me)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
			return
		}
		log.Printf("[AuthHandler] register failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	h.respondWithTokens(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.auth.Authenticate(req.Login, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.respondWithTokens(c, http.StatusOK, user)
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.auth.GoogleLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google token"})
			return
		}
		log.Printf("[AuthHandler] google login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in with Google"})
		return
	}

	h.respondWithTokens(c, http.StatusOK, user)
}

// Refresh exchanges the refresh cookie for a fresh access token. The token is
// never accepted from the body; the cookie is the only delivery channel.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token required"})
		return
	}

	claims, err := h.auth.ValidateRefreshToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	user, err := h.auth.GetUser(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	access, err := h.auth.IssueAccessToken(user)
	if err != nil {
		log.Printf("[AuthHandler] token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: access, TokenType: "bearer"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.auth.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, h.toUserResponse(c, user))
}

func (h *AuthHandler) toUserResponse(c *gin.Context, user *models.User) UserResponse {
	avatar := user.ProfilePic
	if h.signer != nil && avatar != "" {
		if signed := h.signer.SignedURL(c.Request.Context(), avatar); signed != "" {
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

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, user *models.User) {
	access, err := h.auth.IssueAccessToken(user)
	if err != nil {
		log.Printf("[AuthHandler] token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	refresh, err := h.auth.IssueRefreshToken(user)
	if err != nil {
		log.Printf("[AuthHandler] token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, refresh, int(h.refreshTTL.Seconds()), refreshCookiePath, "", h.secure, true)
	c.JSON(status, TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
	})
}
