package repository

import (
	"time"

	"watermyplant/internal/models"

	"gorm.io/gorm"
)

// Every plant and watering query goes through one of these scopes so that a
// row owned by another user is indistinguishable from a missing one.

// ownedPlants restricts a plants query to rows owned by ownerID.
func ownedPlants(ownerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("plants.owner_id = ?", ownerID)
	}
}

// ownedEvents restricts a watering_events query to events on plants owned by ownerID.
func ownedEvents(ownerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		plants := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Plant{}).
			Select("id").
			Where("owner_id = ?", ownerID)
		return db.Where("watering_events.plant_id IN (?)", plants)
	}
}

// withUpdatedAt copies fields and stamps updated_at.
func withUpdatedAt(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["updated_at"] = now
	return out
}
