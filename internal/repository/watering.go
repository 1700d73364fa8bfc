package repository

import (
	"context"
	"errors"

	"watermyplant/internal/models"

	"gorm.io/gorm"
)

// WateringRepository defines persistence operations for watering events.
// Ownership is resolved through the event's plant.
type WateringRepository interface {
	// Create returns nil, nil when the plant is absent or owned by someone else.
	Create(ctx context.Context, event *models.WateringEvent, ownerID string) (*models.WateringEvent, error)
	History(ctx context.Context, plantID, ownerID string) ([]models.WateringEvent, error)
	Last(ctx context.Context, plantID, ownerID string) (*models.WateringEvent, error)
	Update(ctx context.Context, eventID, ownerID string, fields map[string]any) (*models.WateringEvent, error)
	Delete(ctx context.Context, eventID, ownerID string) (bool, error)
}

type wateringRepository struct {
	db *gorm.DB
}

const historyOrder = "watered_at DESC, created_at DESC"

// NewWateringRepository returns a new WateringRepository implementation.
func NewWateringRepository(db *gorm.DB) WateringRepository {
	return &wateringRepository{db: db}
}

func (r *wateringRepository) Create(ctx context.Context, event *models.WateringEvent, ownerID string) (*models.WateringEvent, error) {
	var created *models.WateringEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.Plant{}).
			Scopes(ownedPlants(ownerID)).
			Where("plants.id = ?", event.PlantID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return nil
		}
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		created = event
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return created, nil
}

func (r *wateringRepository) History(ctx context.Context, plantID, ownerID string) ([]models.WateringEvent, error) {
	events := []models.WateringEvent{}
	if err := r.db.WithContext(ctx).
		Scopes(ownedEvents(ownerID)).
		Where("watering_events.plant_id = ?", plantID).
		Order(historyOrder).
		Find(&events).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

func (r *wateringRepository) Last(ctx context.Context, plantID, ownerID string) (*models.WateringEvent, error) {
	return r.first(ctx, ownerID, "watering_events.plant_id = ?", plantID)
}

func (r *wateringRepository) first(ctx context.Context, ownerID, query string, args ...any) (*models.WateringEvent, error) {
	var event models.WateringEvent
	err := r.db.WithContext(ctx).
		Scopes(ownedEvents(ownerID)).
		Where(query, args...).
		Order(historyOrder).
		Take(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &event, nil
}

// Update applies only the given columns. An empty map leaves the row untouched.
func (r *wateringRepository) Update(ctx context.Context, eventID, ownerID string, fields map[string]any) (*models.WateringEvent, error) {
	if len(fields) > 0 {
		result := r.db.WithContext(ctx).
			Model(&models.WateringEvent{}).
			Scopes(ownedEvents(ownerID)).
			Where("watering_events.id = ?", eventID).
			Updates(fields)
		if result.Error != nil {
			return nil, models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}
	}
	return r.first(ctx, ownerID, "watering_events.id = ?", eventID)
}

func (r *wateringRepository) Delete(ctx context.Context, eventID, ownerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Scopes(ownedEvents(ownerID)).
		Where("watering_events.id = ?", eventID).
		Delete(&models.WateringEvent{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
