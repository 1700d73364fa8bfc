package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WateringEvent records one watering of a plant.
type WateringEvent struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	PlantID        string    `gorm:"size:36;not null;index:idx_watering_plant_time,priority:1" json:"plant_id"`
	Plant          *Plant    `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE" json:"-"`
	WateredAt      time.Time `gorm:"not null;index:idx_watering_plant_time,priority:2" json:"watered_at"`
	FertilizerUsed bool      `gorm:"not null;default:false" json:"fertilizer_used"`
	Notes          *string   `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate assigns a random identifier and defaults WateredAt to now.
func (w *WateringEvent) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.WateredAt.IsZero() {
		w.WateredAt = time.Now()
	}
	return nil
}
