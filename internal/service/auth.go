package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/config"
	"github.com/foodsnap-ai/backend/internal/middleware"
	"github.com/foodsnap-ai/backend/internal/models"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// AuthService issues and validates token pairs and manages credentials.
type AuthService struct {
	db             *gorm.DB
	accessSecret   string
	refreshSecret  string
	accessTTL      time.Duration
	refreshTTL     time.Duration
	googleClientID string
	tokenInfoURL   string
	httpClient     *http.Client
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:             db,
		accessSecret:   cfg.JWTSecret,
		refreshSecret:  cfg.JWTRefreshSecret,
		accessTTL:      cfg.AccessTokenTTL,
		refreshTTL:     cfg.RefreshTokenTTL,
		googleClientID: cfg.GoogleClientID,
		tokenInfoURL:   defaultTokenInfoURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *AuthService) Register(username, email, password string) (*models.User, error) {
	var existing models.User
	if err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("username or email %w", ErrDuplicate)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate verifies a username-or-email identifier plus password against
// the stored hash.
func (s *AuthService) Authenticate(identifier, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? OR email = ?", identifier, identifier).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// IssueAccessToken signs a short-lived access token for the user.
func (s *AuthService) IssueAccessToken(user *models.User) (string, error) {
	return s.signToken(user, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a days-scale refresh token under the refresh secret.
func (s *AuthService) IssueRefreshToken(user *models.User) (string, error) {
	return s.signToken(user, s.refreshSecret, s.refreshTTL)
}

func (s *AuthService) signToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.Username,
		"id":  float64(user.ID),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken verifies signature and expiry of an access token and
// extracts the principal.
func (s *AuthService) ValidateAccessToken(tokenString string) (*middleware.TokenClaims, error) {
	return s.validateToken(tokenString, s.accessSecret)
}

// ValidateRefreshToken verifies a refresh token under the refresh secret.
func (s *AuthService) ValidateRefreshToken(tokenString string) (*middleware.TokenClaims, error) {
	return s.validateToken(tokenString, s.refreshSecret)
}

func (s *AuthService) validateToken(tokenString, secret string) (*middleware.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	username, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &middleware.TokenClaims{
		UserID:   uint(id),
		Username: username,
	}, nil
}

// IsAdmin reports whether the user's stored admin flag is set.
func (s *AuthService) IsAdmin(userID uint) (bool, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return false, ErrNotFound
	}
	return user.IsAdmin, nil
}

// GetUser loads a user row by id.
func (s *AuthService) GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrNotFound
	}
	return &user, nil
}

// googleTokenInfo is the subset of the tokeninfo response we act on.
type googleTokenInfo struct {
	Aud   string `json:"aud"`
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleLogin verifies a Google ID token and returns the local user,
// auto-provisioning one on first sight. The password slot is filled with a
// hash of the provider's opaque subject id and is never presented to anyone.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.tokenInfoURL+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token with Google: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode token info: %w", err)
	}

	if s.googleClientID != "" && info.Aud != s.googleClientID {
		return nil, ErrInvalidToken
	}
	if info.Email == "" {
		return nil, ErrInvalidToken
	}

	var user models.User
	err = s.db.Where("email = ?", info.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = strings.SplitN(info.Email, "@", 2)[0]
	}
	name = s.dedupeUsername(name, info.Sub)

	hashed, err := bcrypt.GenerateFromPassword([]byte(info.Sub), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user = models.User{
		Username:     name,
		Email:        info.Email,
		PasswordHash: string(hashed),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// dedupeUsername keeps the display name unique by appending a fragment of the
// provider subject when the name is already taken.
func (s *AuthService) dedupeUsername(name, sub string) string {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", name).Count(&count).Error; err != nil || count == 0 {
		return name
	}
	suffix := sub
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	if suffix == "" {
		suffix = fmt.Sprintf("%d", count+1)
	}
	return name + "-" + suffix
}
