package repository

import (
	"context"
	"errors"

	"watermyplant/internal/models"

	"gorm.io/gorm"
)

// PlantRepository defines owner-scoped persistence operations for plants.
// Lookups return nil, nil when the plant is absent or owned by someone else.
type PlantRepository interface {
	Create(ctx context.Context, plant *models.Plant) error
	GetByName(ctx context.Context, name, ownerID string) (*models.Plant, error)
	GetByID(ctx context.Context, id, ownerID string) (*models.Plant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Plant, error)
	Update(ctx context.Context, id, ownerID string, fields map[string]any) (*models.Plant, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}

type plantRepository struct {
	db *gorm.DB
}

// NewPlantRepository returns a new PlantRepository implementation.
func NewPlantRepository(db *gorm.DB) PlantRepository {
	return &plantRepository{db: db}
}

func (r *plantRepository) Create(ctx context.Context, plant *models.Plant) error {
	if err := r.db.WithContext(ctx).Create(plant).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewPlantNameTakenError()
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *plantRepository) first(ctx context.Context, ownerID, query string, args ...any) (*models.Plant, error) {
	var plant models.Plant
	err := r.db.WithContext(ctx).
		Scopes(ownedPlants(ownerID)).
		Where(query, args...).
		First(&plant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &plant, nil
}

func (r *plantRepository) GetByName(ctx context.Context, name, ownerID string) (*models.Plant, error) {
	return r.first(ctx, ownerID, "plants.name = ?", name)
}

func (r *plantRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Plant, error) {
	return r.first(ctx, ownerID, "plants.id = ?", id)
}

func (r *plantRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Plant, error) {
	plants := []models.Plant{}
	if err := r.db.WithContext(ctx).
		Scopes(ownedPlants(ownerID)).
		Order("created_at ASC, id ASC").
		Find(&plants).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return plants, nil
}

// Update applies only the given columns. An empty map leaves the row untouched.
func (r *plantRepository) Update(ctx context.Context, id, ownerID string, fields map[string]any) (*models.Plant, error) {
	if len(fields) == 0 {
		return r.GetByID(ctx, id, ownerID)
	}

	result := r.db.WithContext(ctx).
		Model(&models.Plant{}).
		Scopes(ownedPlants(ownerID)).
		Where("plants.id = ?", id).
		Updates(withUpdatedAt(fields, r.db.NowFunc()))
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return nil, models.NewPlantNameTakenError()
		}
		return nil, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id, ownerID)
}

// Delete removes the plant. Its watering events go with it through the foreign key.
func (r *plantRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Scopes(ownedPlants(ownerID)).
		Where("plants.id = ?", id).
		Delete(&models.Plant{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
