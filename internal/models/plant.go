package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plant is a plant registered by its owner. Names are unique per owner.
type Plant struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_plants_owner_name,priority:2" json:"name"`
	Type        string    `gorm:"size:100;not null" json:"type"`
	Description *string   `gorm:"type:text" json:"description"`
	OwnerID     string    `gorm:"size:36;not null;index;uniqueIndex:idx_plants_owner_name,priority:1" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random identifier when none was provided.
func (p *Plant) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
