package storage

import (
	"campusnet/backend/internal/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GetUser resolves a directory entry.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, dbError("get user", err)
	}
	return &user, nil
}

// GetUsers resolves many directory entries at once. Unknown ids are absent from the result.
func (s *Service) GetUsers(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, dbError("get users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// SaveUser upserts a directory entry. Used by seeding and tests.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	return dbError("save user", s.DB.WithContext(ctx).Save(user).Error)
}
