package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/internal/cache"
	"github.com/foodsnap-ai/backend/internal/models"
)

// ProfileUpdate carries the editable account fields; nil means unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
}

// ProfileService manages the caller's own account record.
type ProfileService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB, c *cache.Cache) *ProfileService {
	return &ProfileService{db: db, cache: c}
}

// Get loads the account by id.
func (s *ProfileService) Get(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrNotFound
	}
	return &user, nil
}

// Update changes username and/or email, enforcing uniqueness of both.
func (s *ProfileService) Update(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil && *update.Username != "" && *update.Username != user.Username {
		var count int64
		s.db.Model(&models.User{}).Where("username = ? AND id <> ?", *update.Username, userID).Count(&count)
		if count > 0 {
			return nil, fmt.Errorf("username %w", ErrDuplicate)
		}
		user.Username = *update.Username
	}

	if update.Email != nil && *update.Email != "" && *update.Email != user.Email {
		var count int64
		s.db.Model(&models.User{}).Where("email = ? AND id <> ?", *update.Email, userID).Count(&count)
		if count > 0 {
			return nil, fmt.Errorf("email %w", ErrDuplicate)
		}
		user.Email = *update.Email
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	// Listings embed the author's name and avatar.
	s.cache.InvalidateRecipes(ctx)
	return user, nil
}

// SetAvatar stores the uploaded avatar's object key on the account.
func (s *ProfileService) SetAvatar(ctx context.Context, userID uint, objectKey string) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	user.ProfilePic = objectKey
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	s.cache.InvalidateRecipes(ctx)
	return user, nil
}
