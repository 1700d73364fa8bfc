// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"watermyplant/internal/cache"
	"watermyplant/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByUsername returns nil, nil when absent. The password hash is never populated.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetCredentials always reads the database and includes the password hash.
	GetCredentials(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, username string, active bool) (bool, error)
	Delete(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

var errUserNotFound = errors.New("user not found")

// NewUserRepository returns a new UserRepository implementation. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewUsernameTakenError()
		}
		return models.NewInternalError(err)
	}
	r.cache.InvalidateUser(ctx, user.Username)
	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.cache.Aside(ctx, cache.UserKey(username), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUserNotFound
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if errors.Is(err, errUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &user, nil
}

func (r *userRepository) GetCredentials(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	user.PasswordHash = ""
	return &user, nil
}

func (r *userRepository) SetActive(ctx context.Context, username string, active bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("is_active", active)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	r.cache.InvalidateUser(ctx, username)
	return result.RowsAffected > 0, nil
}

// Delete removes the user. Plants and their watering events go with it through the foreign keys.
func (r *userRepository) Delete(ctx context.Context, username string) (bool, error) {
	result := r.db.WithContext(ctx).Where("username = ?", username).Delete(&models.User{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	r.cache.InvalidateUser(ctx, username)
	return result.RowsAffected > 0, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	var users []models.User
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
