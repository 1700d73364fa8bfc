package service

import (
	"context"

	"watermyplant/internal/models"
	"watermyplant/internal/observability"
	"watermyplant/internal/repository"
	"watermyplant/internal/validation"
)

// PlantService manages the caller's plants and enforces unique names per owner.
type PlantService struct {
	plants  repository.PlantRepository
	metrics *observability.Metrics
}

// CreatePlantInput carries a new plant for OwnerID.
type CreatePlantInput struct {
	OwnerID     string
	Name        string
	Type        string
	Description *string
}

// UpdatePlantInput carries a partial update. A nil field is left unchanged.
type UpdatePlantInput struct {
	OwnerID     string
	PlantID     string
	Name        *string
	Type        *string
	Description *string
}

// NewPlantService creates a PlantService over the plant store.
func NewPlantService(plants repository.PlantRepository, metrics *observability.Metrics) *PlantService {
	return &PlantService{plants: plants, metrics: metrics}
}

// CreatePlant validates and stores a plant. A name the owner already uses is PLANT_NAME_TAKEN.
func (s *PlantService) CreatePlant(ctx context.Context, in CreatePlantInput) (*models.Plant, error) {
	if err := validation.ValidateName("name", in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("type", in.Type); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("description", in.Description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.plants.GetByName(ctx, in.Name, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewPlantNameTakenError()
	}

	plant := &models.Plant{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		OwnerID:     in.OwnerID,
	}
	if err := s.plants.Create(ctx, plant); err != nil {
		return nil, err
	}

	s.metrics.PlantCreated()
	return plant, nil
}

// ListPlants returns ownerID's plants in creation order.
func (s *PlantService) ListPlants(ctx context.Context, ownerID string) ([]models.Plant, error) {
	return s.plants.ListByOwner(ctx, ownerID)
}

// GetPlant returns NotFound for an absent or foreign plant.
func (s *PlantService) GetPlant(ctx context.Context, plantID, ownerID string) (*models.Plant, error) {
	plant, err := s.plants.GetByID(ctx, plantID, ownerID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, models.NewNotFoundError("Plant")
	}
	return plant, nil
}

// UpdatePlant applies a partial update to one of the owner's plants.
func (s *PlantService) UpdatePlant(ctx context.Context, in UpdatePlantInput) (*models.Plant, error) {
	fields := make(map[string]any, 3)

	if in.Name != nil {
		if err := validation.ValidateName("name", *in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["name"] = *in.Name
	}
	if in.Type != nil {
		if err := validation.ValidateName("type", *in.Type); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["type"] = *in.Type
	}
	if in.Description != nil {
		if err := validation.ValidateText("description", in.Description); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["description"] = *in.Description
	}

	if in.Name != nil {
		// An unknown id is NotFound before any name clash.
		if _, err := s.GetPlant(ctx, in.PlantID, in.OwnerID); err != nil {
			return nil, err
		}
		clash, err := s.plants.GetByName(ctx, *in.Name, in.OwnerID)
		if err != nil {
			return nil, err
		}
		if clash != nil && clash.ID != in.PlantID {
			return nil, models.NewPlantNameTakenError()
		}
	}

	plant, err := s.plants.Update(ctx, in.PlantID, in.OwnerID, fields)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, models.NewNotFoundError("Plant")
	}
	return plant, nil
}

// DeletePlant removes a plant together with its watering history.
func (s *PlantService) DeletePlant(ctx context.Context, plantID, ownerID string) error {
	deleted, err := s.plants.Delete(ctx, plantID, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Plant")
	}
	s.metrics.PlantDeleted()
	return nil
}
